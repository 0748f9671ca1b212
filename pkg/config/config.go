// Package config provides the veind configuration data for the server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config provides veind configuration data for the server.
// It is constructed once at startup and passed to every component;
// none of the fields are mutated after that.
type Config struct {
	// Address for the control-plane API to listen on.
	Address string `json:"address"`

	// ServerDir is the game server install directory.
	ServerDir string `json:"server_dir"`

	// ConfigDir holds the engine-consumed INI files (Game.ini, Engine.ini).
	ConfigDir string `json:"config_dir"`

	// LogDir holds the game server log files.
	LogDir string `json:"log_dir"`

	// APIKey protects all routes except the liveness check.
	// Empty disables authentication entirely.
	APIKey string `json:"-"`

	// ProcessName is the binary identity used to find the managed process.
	ProcessName string `json:"process_name"`

	// AppID is the Steam application id passed to the update tool.
	AppID string `json:"app_id"`

	// SteamCmdPath is the path to the external update tool.
	SteamCmdPath string `json:"steamcmd_path"`

	// SteamUser is the Steam account for the update tool.
	SteamUser string `json:"steam_user"`

	// GamePort and QueryPort derive the launch flags on restart.
	GamePort  string `json:"game_port"`
	QueryPort string `json:"query_port"`

	// MultihomeIP, when set, adds -multihome=<ip> to the launch flags.
	MultihomeIP string `json:"multihome_ip,omitempty"`

	// GracefulTimeout bounds the wait after a terminate signal before
	// escalating to a forceful kill during restart.
	GracefulTimeout time.Duration `json:"graceful_timeout"`

	// SampleInterval is the fixed CPU sampling window for metrics.
	SampleInterval time.Duration `json:"sample_interval"`
}

func (config *Config) Validate() error {
	if config.Address == "" {
		return errors.New("address is required")
	}
	if config.ServerDir == "" {
		return errors.New("server_dir is required")
	}
	if config.ConfigDir == "" {
		return errors.New("config_dir is required")
	}
	if config.LogDir == "" {
		return errors.New("log_dir is required")
	}
	if config.ProcessName == "" {
		return errors.New("process_name is required")
	}
	if config.GracefulTimeout <= 0 {
		return fmt.Errorf("graceful_timeout must be positive, got %v", config.GracefulTimeout)
	}
	if config.SampleInterval <= 0 {
		return fmt.Errorf("sample_interval must be positive, got %v", config.SampleInterval)
	}
	return nil
}

// GameINIPath returns the path of the Game.ini consumed by the engine.
func (config *Config) GameINIPath() string {
	return joinDir(config.ConfigDir, "Game.ini")
}

// EngineINIPath returns the path of the Engine.ini consumed by the engine.
func (config *Config) EngineINIPath() string {
	return joinDir(config.ConfigDir, "Engine.ini")
}
