package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameINI = `[/Script/Engine.GameSession]
MaxPlayers=16

[/Script/Vein.VeinGameSession]
ServerName="X"
`

func writeGameINI(t *testing.T, cfgDir string) string {
	t.Helper()
	path := filepath.Join(cfgDir, "Game.ini")
	require.NoError(t, os.WriteFile(path, []byte(gameINI), 0o644))
	return path
}

func TestGetGameConfig(t *testing.T) {
	s, deps := newTestServer(t, nil)
	writeGameINI(t, deps.cfg.ConfigDir)

	rec := doRequest(s, http.MethodGet, "/api/config/game", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		File   string                       `json:"file"`
		Config map[string]map[string]string `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Game.ini", resp.File)
	assert.Equal(t, "16", resp.Config["/Script/Engine.GameSession"]["MaxPlayers"])
	assert.Equal(t, `"X"`, resp.Config["/Script/Vein.VeinGameSession"]["ServerName"])
}

func TestGetConfigMissingFile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/config/engine", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutGameConfig(t *testing.T) {
	s, deps := newTestServer(t, nil)
	path := writeGameINI(t, deps.cfg.ConfigDir)

	body := `{"config":{"/Script/Engine.GameSession":{"MaxPlayers":"32"}}}`
	rec := doRequest(s, http.MethodPut, "/api/config/game", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Game.ini updated successfully")
	assert.Contains(t, rec.Body.String(), "restart required")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(after), "MaxPlayers=32")
	assert.Contains(t, string(after), `ServerName="X"`, "untouched keys preserved")

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1, "exactly one new backup after one write")
}

func TestPatchEngineConfig(t *testing.T) {
	s, deps := newTestServer(t, nil)
	path := filepath.Join(deps.cfg.ConfigDir, "Engine.ini")
	require.NoError(t, os.WriteFile(path, []byte("[URL]\nPort=7777\n"), 0o644))

	body := `{"config":{"URL":{"Port":"7778"}}}`
	rec := doRequest(s, http.MethodPatch, "/api/config/engine", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[URL]\nPort=7778\n", string(after))
}

func TestPutConfigRejectsNonStringValues(t *testing.T) {
	s, deps := newTestServer(t, nil)
	path := writeGameINI(t, deps.cfg.ConfigDir)

	tests := []struct {
		name string
		body string
	}{
		{name: "number", body: `{"config":{"/Script/Engine.GameSession":{"MaxPlayers":32}}}`},
		{name: "bool", body: `{"config":{"/Script/Engine.GameSession":{"bPublic":true}}}`},
		{name: "nested object", body: `{"config":{"/Script/Engine.GameSession":{"MaxPlayers":{"v":"32"}}}}`},
		{name: "malformed json", body: `{"config":`},
		{name: "empty config", body: `{"config":{}}`},
		{name: "empty sections only", body: `{"config":{"/Script/Engine.GameSession":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPut, "/api/config/game", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// no write, no backup
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gameINI, string(after))
	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestPutConfigRejectsStructuralInjection(t *testing.T) {
	s, deps := newTestServer(t, nil)
	path := writeGameINI(t, deps.cfg.ConfigDir)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty section name", body: `{"config":{"":{"k":"v"}}}`},
		{name: "newline in value", body: `{"config":{"/Script/Engine.GameSession":{"MaxPlayers":"32\n[Injected]\nevil=1"}}}`},
		{name: "equals in key", body: `{"config":{"/Script/Engine.GameSession":{"MaxPlayers=32":"x"}}}`},
		{name: "bracket in section name", body: `{"config":{"A]B":{"k":"v"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPut, "/api/config/game", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// untouched file, no backup, and the file still parses
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gameINI, string(after))
	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Empty(t, backups)

	rec := doRequest(s, http.MethodGet, "/api/config/game", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutConfigMissingFile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := `{"config":{"URL":{"Port":"7778"}}}`
	rec := doRequest(s, http.MethodPut, "/api/config/engine", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutConfigIdempotent(t *testing.T) {
	s, deps := newTestServer(t, nil)
	path := writeGameINI(t, deps.cfg.ConfigDir)

	body := `{"config":{"/Script/Engine.GameSession":{"MaxPlayers":"32"}}}`

	rec := doRequest(s, http.MethodPut, "/api/config/game", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	rec = doRequest(s, http.MethodPut, "/api/config/game", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.False(t, strings.Contains(string(second), "MaxPlayers=16"))
}
