package config

import (
	"fmt"
	stdos "os"
	"path/filepath"
	"time"
)

const (
	DefaultPort = 9081

	DefaultServerDir   = "/home/steam/vein-server"
	DefaultProcessName = "VeinServer"

	DefaultSteamCmdPath = "/home/steam/steamcmd/steamcmd.sh"
	DefaultSteamUser    = "anonymous"

	DefaultGamePort  = "7777"
	DefaultQueryPort = "27015"
)

var (
	// a terminate signal followed by this bounded wait, then a kill;
	// the engine offers no documented shutdown contract beyond SIGTERM
	DefaultGracefulTimeout = 30 * time.Second

	// instantaneous single reads produce 0%/100% artifacts
	DefaultSampleInterval = time.Second
)

// DefaultConfig builds a Config from the container environment, matching
// the variable names the entrypoint script consumes.
func DefaultConfig() *Config {
	serverDir := envOr("SERVER_PATH", DefaultServerDir)

	cfg := &Config{
		Address:         fmt.Sprintf(":%s", envOr("SERVER_API_PORT", fmt.Sprintf("%d", DefaultPort))),
		ServerDir:       serverDir,
		ConfigDir:       envOr("CONFIG_PATH", filepath.Join(serverDir, "Vein/Saved/Config/LinuxServer")),
		LogDir:          envOr("LOG_DIR", filepath.Join(serverDir, "Vein/Saved/Logs")),
		APIKey:          stdos.Getenv("SERVER_API_KEY"),
		ProcessName:     envOr("SERVER_PROCESS_NAME", DefaultProcessName),
		AppID:           stdos.Getenv("APPID"),
		SteamCmdPath:    envOr("STEAMCMD_PATH", DefaultSteamCmdPath),
		SteamUser:       envOr("STEAM_USER", DefaultSteamUser),
		GamePort:        envOr("GAME_PORT", DefaultGamePort),
		QueryPort:       envOr("GAME_SERVER_QUERY_PORT", DefaultQueryPort),
		MultihomeIP:     stdos.Getenv("SERVER_MULTIHOME_IP"),
		GracefulTimeout: DefaultGracefulTimeout,
		SampleInterval:  DefaultSampleInterval,
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := stdos.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func joinDir(dir, name string) string {
	return filepath.Join(dir, name)
}
