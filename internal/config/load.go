package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DebugEnv forces debug logging when set to a true value.
const DebugEnv = "LISTVIEW_DEBUG"

// Load reads the configuration at path. An empty path tries the global
// configuration file and falls back to defaults when there is none. Files
// ending in .toml are decoded as TOML, everything else as JSON.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		path = GlobalConfig()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		if err := decode(path, cfg); err != nil {
			return nil, err
		}
		cfg.path = path
	}
	cfg.setDefaults()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	v, ok := os.LookupEnv(DebugEnv)
	if !ok {
		return
	}
	debug, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("Ignoring invalid environment value", "name", DebugEnv, "value", v)
		return
	}
	cfg.Options.Debug = debug
}

// GlobalConfig returns the path to the main configuration file.
func GlobalConfig() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName, appName+".json")
		}
	}
	return filepath.Join(home(), ".config", appName, appName+".json")
}

// GlobalDataDir returns the directory for logs and databases.
func GlobalDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName, "data")
		}
	}
	return filepath.Join(home(), ".local", "share", appName)
}

func home() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}
