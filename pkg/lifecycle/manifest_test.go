package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vein-tools/veind/pkg/errdefs"
)

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "2131400", "14781423")

	m, err := ReadManifest(dir, "2131400")
	require.NoError(t, err)
	assert.Equal(t, "2131400", m.AppID)
	assert.Equal(t, "14781423", m.BuildID)
	assert.Equal(t, int64(1721940623), m.LastUpdated.Unix())
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(t.TempDir(), "2131400")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestReadManifestNoBuildID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "steamapps"), 0o755))
	content := `"AppState"
{
	"appid"		"2131400"
	"name"		"Vein Dedicated Server"
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "steamapps", "appmanifest_2131400.acf"), []byte(content), 0o644))

	_, err := ReadManifest(dir, "2131400")
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestReadManifestIgnoresNestedBlocks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "steamapps"), 0o755))
	content := `"AppState"
{
	"appid"		"2131400"
	"buildid"		"14781423"
	"LastUpdated"		"1721940623"
	"InstalledDepots"
	{
		"2131401"
		{
			"manifest"		"8888888888888888888"
		}
	}
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "steamapps", "appmanifest_2131400.acf"), []byte(content), 0o644))

	m, err := ReadManifest(dir, "2131400")
	require.NoError(t, err)
	assert.Equal(t, "14781423", m.BuildID)
}
