package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable overriding the config file path.
const EnvPath = "RAIDTIMERS_CONFIG"

// DefaultPath is the config file used when EnvPath is unset.
const DefaultPath = "config/timerd.yaml"

// Timers holds all configuration for the timer daemon.
type Timers struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Encounter definitions
	DefinitionsDir   string `yaml:"definitions_dir"`
	WatchDefinitions bool   `yaml:"watch_definitions"`

	// Engine
	TickInterval       time.Duration `yaml:"tick_interval"`
	EventQueueSize     int           `yaml:"event_queue_size"`
	ResetAckDuration   time.Duration `yaml:"reset_ack_duration"`
	DisabledEncounters []string      `yaml:"disabled_encounters"`

	Overlay  Overlay        `yaml:"overlay"`
	Database DatabaseConfig `yaml:"database"`
}

// Overlay holds the WebSocket overlay listener settings.
type Overlay struct {
	BindAddress   string        `yaml:"bind_address"`
	Port          int           `yaml:"port"`
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline
}

// Addr returns the listen address.
func (o Overlay) Addr() string {
	return fmt.Sprintf("%s:%d", o.BindAddress, o.Port)
}

// DatabaseConfig holds PostgreSQL connection parameters.
// The run journal is persisted only when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
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

// DefaultTimers returns Timers config with sensible defaults.
func DefaultTimers() Timers {
	return Timers{
		LogLevel:         "info",
		DefinitionsDir:   "definitions",
		WatchDefinitions: true,
		TickInterval:     100 * time.Millisecond,
		EventQueueSize:   256,
		ResetAckDuration: time.Second,
		Overlay: Overlay{
			BindAddress:   "127.0.0.1",
			Port:          7780,
			SendQueueSize: 64,
			WriteTimeout:  5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "raidtimers",
			Password: "raidtimers",
			DBName:   "raidtimers",
			SSLMode:  "disable",
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

// LoadTimers loads daemon config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadTimers(path string) (Timers, error) {
	cfg := DefaultTimers()

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

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Timers) validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("event_queue_size must be positive, got %d", c.EventQueueSize)
	case c.Overlay.Port < 0 || c.Overlay.Port > 65535:
		return fmt.Errorf("overlay.port out of range: %d", c.Overlay.Port)
	case c.DefinitionsDir == "":
		return fmt.Errorf("definitions_dir is required")
	}
	return nil
}
