package iniconf

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vein-tools/veind/pkg/errdefs"
)

func writeTempINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Game.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func countBackups(t *testing.T, path string) int {
	t.Helper()
	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	return len(matches)
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore()
	_, err := s.Load(filepath.Join(t.TempDir(), "Game.ini"))
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestStoreUpdateMissingFile(t *testing.T) {
	s := NewStore()
	_, err := s.Update(filepath.Join(t.TempDir(), "Game.ini"), Patch{"A": {"k": "v"}})
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestStoreUpdateCreatesBackupBeforeWrite(t *testing.T) {
	path := writeTempINI(t, gameINI)
	s := NewStore()

	res, err := s.Update(path, Patch{"/Script/Engine.GameSession": {"MaxPlayers": "32"}})
	require.NoError(t, err)

	assert.Equal(t, 1, countBackups(t, path))

	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, gameINI, string(backup))

	merged, err := os.ReadFile(path)
	require.NoError(t, err)
	want := strings.Replace(gameINI, "MaxPlayers=16", "MaxPlayers=32", 1)
	assert.Equal(t, want, string(merged))
}

func TestStoreUpdatePreservesUnpatchedContent(t *testing.T) {
	path := writeTempINI(t, gameINI)
	s := NewStore()

	_, err := s.Update(path, Patch{"/Script/Engine.GameSession": {"MaxPlayers": "32"}})
	require.NoError(t, err)

	f, err := s.Load(path)
	require.NoError(t, err)

	name, ok := f.Get("/Script/Vein.VeinGameSession", "ServerName")
	require.True(t, ok)
	assert.Equal(t, `"X"`, name)

	port, ok := f.Get("URL", "Port")
	require.True(t, ok)
	assert.Equal(t, "7777", port)
}

func TestStoreUpdateLeavesNoTempFiles(t *testing.T) {
	path := writeTempINI(t, gameINI)
	s := NewStore()

	_, err := s.Update(path, Patch{"URL": {"Port": "7778"}})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestStoreUpdateParseFailure(t *testing.T) {
	path := writeTempINI(t, "[broken\nk=v\n")
	s := NewStore()

	_, err := s.Update(path, Patch{"A": {"k": "v"}})
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))

	// no mutation, no backup
	assert.Equal(t, 0, countBackups(t, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[broken\nk=v\n", string(data))
}

func TestStoreUpdateRejectsStructuralPatch(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{"empty section writes bare header", Patch{"": {"k": "v"}}},
		{"newline value injects a section", Patch{"A": {"k": "x\n[Injected]\nevil=1"}}},
		{"equals in key shifts the split", Patch{"A": {"k=x": "v"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempINI(t, gameINI)
			s := NewStore()

			_, err := s.Update(path, tt.patch)
			require.Error(t, err)
			assert.True(t, errdefs.IsInvalidArgument(err))

			// no mutation, no backup, file still loads
			assert.Equal(t, 0, countBackups(t, path))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, gameINI, string(data))
			_, err = s.Load(path)
			assert.NoError(t, err)
		})
	}
}

func TestStoreConcurrentUpdatesSerialized(t *testing.T) {
	path := writeTempINI(t, "[A]\nk=0\n")
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(path, Patch{"A": {"k": "1"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f, err := s.Load(path)
	require.NoError(t, err)
	v, ok := f.Get("A", "k")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// still a structurally valid single-section document
	assert.Equal(t, "[A]\nk=1\n", string(f.Encode()))
}
