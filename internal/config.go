package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app" toml:"app"`
	Data  DataConfig        `yaml:"data" toml:"data"`
	Index IndexConfig       `yaml:"index" toml:"index"`
	Auth  AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig selects where projects, tracks and meetings are stored.
//
// With the "fs" backend Root is the data directory. With "sqlite" the tree
// lives in the database at SQLitePath and Root only holds logs.
type DataConfig struct {
	Root       string `yaml:"root" toml:"root"`
	Backend    string `yaml:"backend" toml:"backend"`
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Backend, validation.In(BackendFS, BackendSQLite)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == BackendSQLite, validation.Required)),
	)
}

// IndexConfig configures the search index. An empty Path disables indexing,
// search and open-item queries.
type IndexConfig struct {
	Path           string `yaml:"path" toml:"path"`
	ResyncSchedule string `yaml:"resync_schedule" toml:"resync_schedule"`
}

// Enabled reports whether an index database is configured.
func (c *IndexConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ResyncSchedule, validation.By(validSchedule)),
	)
}

func validSchedule(v any) error {
	sched, _ := v.(string)
	if sched == "" {
		return nil
	}
	if _, err := cron.ParseStandard(sched); err != nil {
		return fmt.Errorf("invalid cron schedule: %w", err)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Root:       "./data",
			Backend:    BackendFS,
			SQLitePath: "./minutebook-data.db",
		},
		Index: IndexConfig{
			Path:           "./minutebook-index.db",
			ResyncSchedule: "@every 10m",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
