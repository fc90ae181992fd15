// Package config loads the pledge server configuration from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable overriding the config path.
const EnvPath = "L2PLEDGE_CONFIG"

// DefaultPath is read when EnvPath is unset.
const DefaultPath = "config/pledgeserver.yaml"

// Server holds all configuration for the pledge server.
type Server struct {
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Database       DatabaseConfig       `yaml:"database"`
	Clan           ClanConfig           `yaml:"clan"`
	CommandChannel CommandChannelConfig `yaml:"command_channel"`
	Events         EventsConfig         `yaml:"events"`
	Admin          AdminConfig          `yaml:"admin"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ClanConfig holds clan creation and dissolution rules.
type ClanConfig struct {
	MinCreateLevel int32         `yaml:"min_create_level"`
	CreateCooldown time.Duration `yaml:"create_cooldown"`
	DissolveDelay  time.Duration `yaml:"dissolve_delay"`
	DissolveFloor  time.Duration `yaml:"dissolve_floor"`
	MinNameLen     int           `yaml:"min_name_len"`
	MaxNameLen     int           `yaml:"max_name_len"`
}

// CommandChannelConfig holds command channel rules.
type CommandChannelConfig struct {
	RaidLootMinMembers int `yaml:"raid_loot_min_members"`
}

// EventsConfig sizes the event bus.
type EventsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// AdminConfig controls the operator HTTP API.
type AdminConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "l2pledge",
			Password: "l2pledge",
			DBName:   "l2pledge",
			SSLMode:  "disable",
		},
		Clan: ClanConfig{
			MinCreateLevel: 10,
			CreateCooldown: 240 * time.Hour,
			DissolveDelay:  168 * time.Hour,
			DissolveFloor:  5 * time.Minute,
			MinNameLen:     2,
			MaxNameLen:     16,
		},
		CommandChannel: CommandChannelConfig{
			RaidLootMinMembers: 18,
		},
		Events: EventsConfig{
			Workers:   4,
			QueueSize: 1024,
		},
		Admin: AdminConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1:8088",
		},
	}
}

// Path returns the config path from EnvPath, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads the config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (s Server) Validate() error {
	c := s.Clan
	switch {
	case c.MinNameLen < 1 || c.MaxNameLen < c.MinNameLen:
		return fmt.Errorf("clan name length bounds [%d, %d] are invalid", c.MinNameLen, c.MaxNameLen)
	case c.CreateCooldown < 0 || c.DissolveDelay < 0 || c.DissolveFloor < 0:
		return fmt.Errorf("clan durations must not be negative")
	case s.Events.Workers < 1 || s.Events.QueueSize < 1:
		return fmt.Errorf("events need at least one worker and queue slot")
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log level name to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
