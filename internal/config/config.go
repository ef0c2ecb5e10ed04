package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Import ImportConfig `yaml:"import"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ImportConfig struct {
	AttendanceURL  string        `yaml:"attendance_url"`
	RosterURL      string        `yaml:"roster_url"`
	Interval       time.Duration `yaml:"interval"`
	RunImmediately bool          `yaml:"run_immediately"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	Secret         string        `yaml:"secret"`
}

type AuthConfig struct {
	// AdminPasswordHash is the hex SHA-256 of the admin password.
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "rollmark.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Import: ImportConfig{
			Interval:       20 * time.Second,
			RunImmediately: true,
			FetchTimeout:   15 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
	}

	if path := os.Getenv("ROLLMARK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("ROLLMARK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ROLLMARK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROLLMARK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("ROLLMARK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("ROLLMARK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if url := os.Getenv("ROLLMARK_ATTENDANCE_URL"); url != "" {
		cfg.Import.AttendanceURL = url
	}
	if url := os.Getenv("ROLLMARK_ROSTER_URL"); url != "" {
		cfg.Import.RosterURL = url
	}
	if intervalStr := os.Getenv("ROLLMARK_IMPORT_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROLLMARK_IMPORT_INTERVAL: %w", err)
		}
		cfg.Import.Interval = interval
	}
	if secret := os.Getenv("ROLLMARK_IMPORT_SECRET"); secret != "" {
		cfg.Import.Secret = secret
	}
	if hash := os.Getenv("ROLLMARK_ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Auth.AdminPasswordHash = hash
	}
	if ttlStr := os.Getenv("ROLLMARK_SESSION_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROLLMARK_SESSION_TTL: %w", err)
		}
		cfg.Auth.SessionTTL = ttl
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
