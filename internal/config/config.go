package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AppName = "esparcraft"

	defaultConfigName   = "config.json"
	defaultServersFile  = "servers.json"
	defaultLogsDir      = "logs"
	defaultDatabaseFile = "esparcraft.db"
	defaultPort         = 23010

	defaultDrainMs   = 80
	defaultSampleMs  = 1200
	defaultStopSecs  = 120
	defaultLogCap    = 5000
	defaultLogKeep   = 3000
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	defaultEncoding  = "utf-8"
)

type Config struct {
	ServersFile        string `json:"servers_file"`
	DatabasePath       string `json:"database_path"`
	LogsPath           string `json:"logs_path"`
	Port               int    `json:"port"`
	LogLevel           string `json:"log_level"`
	LogFormat          string `json:"log_format"`
	DrainIntervalMs    int    `json:"drain_interval_ms"`
	SampleWindowMs     int    `json:"sample_window_ms"`
	StopTimeoutSeconds *int   `json:"stop_timeout_seconds,omitempty"`
	ConsoleEncoding    string `json:"console_encoding"`
	JavaPath           string `json:"java_path,omitempty"`
	ReadyMarker        string `json:"ready_marker,omitempty"`
	LogCap             int    `json:"log_cap"`
	LogKeep            int    `json:"log_keep"`
}

func (c *Config) DrainInterval() time.Duration {
	return time.Duration(c.DrainIntervalMs) * time.Millisecond
}

func (c *Config) SampleWindow() time.Duration {
	return time.Duration(c.SampleWindowMs) * time.Millisecond
}

func (c *Config) StopTimeout() time.Duration {
	if c.StopTimeoutSeconds == nil {
		return defaultStopSecs * time.Second
	}
	return time.Duration(*c.StopTimeoutSeconds) * time.Second
}

func IsDev() bool {
	v, _ := strconv.ParseBool(os.Getenv("ESPARCRAFT_DEV"))
	return v
}

func Dir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	name := AppName
	if IsDev() {
		name = AppName + "-dev"
	}
	return filepath.Join(userConfigDir, name), nil
}

// GetPort returns ESPARCRAFT_PORT when set to a valid port, otherwise the
// configured one.
func (c *Config) GetPort() int {
	if v := os.Getenv("ESPARCRAFT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			return p
		}
	}
	return c.Port
}

func LoadConfig(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, defaultConfigName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath, configDir)
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults(configDir)

	return &cfg, nil
}

func defaultConfig(configDir string) Config {
	stop := defaultStopSecs
	return Config{
		ServersFile:        filepath.Join(configDir, defaultServersFile),
		DatabasePath:       filepath.Join(configDir, defaultDatabaseFile),
		LogsPath:           filepath.Join(configDir, defaultLogsDir),
		Port:               defaultPort,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		DrainIntervalMs:    defaultDrainMs,
		SampleWindowMs:     defaultSampleMs,
		StopTimeoutSeconds: &stop,
		ConsoleEncoding:    defaultEncoding,
		LogCap:             defaultLogCap,
		LogKeep:            defaultLogKeep,
	}
}

func (c *Config) applyDefaults(configDir string) {
	def := defaultConfig(configDir)
	if c.ServersFile == "" {
		c.ServersFile = def.ServersFile
	}
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.LogsPath == "" {
		c.LogsPath = def.LogsPath
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.DrainIntervalMs <= 0 {
		c.DrainIntervalMs = def.DrainIntervalMs
	}
	if c.SampleWindowMs <= 0 {
		c.SampleWindowMs = def.SampleWindowMs
	}
	if c.StopTimeoutSeconds == nil || *c.StopTimeoutSeconds < 0 {
		c.StopTimeoutSeconds = def.StopTimeoutSeconds
	}
	if c.ConsoleEncoding == "" {
		c.ConsoleEncoding = def.ConsoleEncoding
	}
	if c.LogCap <= 0 {
		c.LogCap = def.LogCap
	}
	if c.LogKeep <= 0 || c.LogKeep > c.LogCap {
		c.LogKeep = c.LogCap * 3 / 5
	}
}

func createDefaultConfig(configPath, configDir string) (*Config, error) {
	cfg := defaultConfig(configDir)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return nil, err
	}

	return &cfg, nil
}
