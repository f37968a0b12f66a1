package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds process-level options for the CLI and API server.
type Settings struct {
	Addr     string           `mapstructure:"addr"`
	LogLevel string           `mapstructure:"log_level"`
	Store    StoreSettings    `mapstructure:"store"`
	Greptime GreptimeSettings `mapstructure:"greptimedb"`
}

// StoreSettings selects and tunes the persistence backend.
type StoreSettings struct {
	// Driver is "memory" or "mysql".
	Driver string `mapstructure:"driver"`
	// DSN format: user:password@tcp(host:port)/database
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GreptimeSettings configures the optional GreptimeDB sink.
type GreptimeSettings struct {
	Endpoint   string `mapstructure:"endpoint"`
	Database   string `mapstructure:"database"`
	TickTable  string `mapstructure:"tick_table"`
	EventTable string `mapstructure:"event_table"`
}

// DefaultSettings returns settings for a local, in-memory setup.
func DefaultSettings() Settings {
	return Settings{
		Addr:     ":8080",
		LogLevel: "info",
		Store: StoreSettings{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Greptime: GreptimeSettings{
			Database:   "public",
			TickTable:  "reliability_ticks",
			EventTable: "reliability_events",
		},
	}
}

// NewViper returns a viper instance with defaults registered and environment
// lookups under the RELSIM_ prefix. GREPTIMEDB_* variables are honored as well.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RELSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := DefaultSettings()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.max_open_conns", d.Store.MaxOpenConns)
	v.SetDefault("store.max_idle_conns", d.Store.MaxIdleConns)
	v.SetDefault("store.conn_max_lifetime", d.Store.ConnMaxLifetime)
	v.SetDefault("greptimedb.endpoint", d.Greptime.Endpoint)
	v.SetDefault("greptimedb.database", d.Greptime.Database)
	v.SetDefault("greptimedb.tick_table", d.Greptime.TickTable)
	v.SetDefault("greptimedb.event_table", d.Greptime.EventTable)

	_ = v.BindEnv("greptimedb.endpoint", "RELSIM_GREPTIMEDB_ENDPOINT", "GREPTIMEDB_ENDPOINT")
	_ = v.BindEnv("greptimedb.tick_table", "RELSIM_GREPTIMEDB_TICK_TABLE", "GREPTIMEDB_TICK_TABLE")
	_ = v.BindEnv("greptimedb.event_table", "RELSIM_GREPTIMEDB_EVENT_TABLE", "GREPTIMEDB_EVENT_TABLE")
	return v
}

// LoadSettings unmarshals v into Settings and validates the result.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := DefaultSettings()
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for contradictions.
func (s *Settings) Validate() error {
	var errs []string
	switch s.Store.Driver {
	case "memory":
	case "mysql":
		if s.Store.DSN == "" {
			errs = append(errs, "store.dsn is required for the mysql driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", s.Store.Driver))
	}
	if s.Store.MaxOpenConns < 1 {
		errs = append(errs, "store.max_open_conns must be >= 1")
	}
	if s.Store.MaxIdleConns > s.Store.MaxOpenConns {
		errs = append(errs, "store.max_idle_conns should not exceed max_open_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("settings errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
