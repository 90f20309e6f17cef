package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quote-relay/src/helpers"
	"quote-relay/src/models"
	"quote-relay/src/storage"
	"quote-relay/src/unifeeder"
)

// -----------------------------------------------------------------------------
// Config wraps the raw yaml model with load/validate/save behaviour.
// -----------------------------------------------------------------------------

type Config struct {
	*models.MConfig
	path string
}

// -----------------------------------------------------------------------------

// NewConfig loads and validates a yaml configuration file.
func NewConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helpers.NewConfigurationError("failed to read config file", err)
	}

	cfg := &Config{
		MConfig: &models.MConfig{},
		path:    path,
	}
	if err := yaml.Unmarshal(data, cfg.MConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------

// Validate checks the loaded configuration for values the relay cannot run
// without. Defaults are filled in where a safe one exists.
func (c *Config) Validate() error {
	if c.Name == "" {
		c.Name = "quote-relay"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	// Upstream feed
	if c.Tws.Host == "" {
		return helpers.NewConfigurationError("tws.host is required", nil)
	}
	if c.Tws.Port <= 0 || c.Tws.Port > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("tws.port %d is out of range", c.Tws.Port), nil)
	}
	if len(c.Tws.Mapping) == 0 {
		return helpers.NewConfigurationError("tws.mapping must list at least one symbol", nil)
	}
	for symbol, contract := range c.Tws.Mapping {
		if symbol == "" {
			return helpers.NewConfigurationError("tws.mapping contains an empty symbol key", nil)
		}
		if contract.Symbol == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("tws.mapping %q: contract symbol is required", symbol), nil)
		}
	}

	// Downstream feeder
	if c.UniFeeder.Port <= 0 || c.UniFeeder.Port > 65535 {
		return helpers.NewConfigurationError(fmt.Sprintf("unifeeder.port %d is out of range", c.UniFeeder.Port), nil)
	}
	// The feeder server owns the terminator accept-list; validate against it
	// so the two can never drift apart.
	if _, err := unifeeder.ParseTerminator(c.UniFeeder.Terminator); err != nil {
		return helpers.NewConfigurationError("unifeeder.terminator is invalid", err)
	}
	for i, pair := range c.UniFeeder.Authorization {
		if !pair.IsFilled() {
			return helpers.NewConfigurationError(fmt.Sprintf("unifeeder.authorization[%d] needs both login and password", i), nil)
		}
	}
	for i, t := range c.UniFeeder.Translates {
		if t.Symbol == "" || t.Source == "" {
			return helpers.NewConfigurationError(fmt.Sprintf("unifeeder.translates[%d] needs symbol and source", i), nil)
		}
		if t.Digits < 0 || t.Digits > 10 {
			return helpers.NewConfigurationError(fmt.Sprintf("unifeeder.translates[%d]: digits %d out of range", i, t.Digits), nil)
		}
		if t.NumberLastTicks <= 0 {
			return helpers.NewConfigurationError(fmt.Sprintf("unifeeder.translates[%d]: number_last_ticks must be positive", i), nil)
		}
	}

	// Watchdog
	if c.WatchDog.MaxCriticalErrors <= 0 {
		c.WatchDog.MaxCriticalErrors = 10
	}

	// Storage
	if !storage.SupportedDBType(c.Storage.DBType) {
		return helpers.NewConfigurationError(fmt.Sprintf("storage.db_type %q is not one of sqlite, postgres, none", c.Storage.DBType), nil)
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "quotes.db"
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return helpers.NewConfigurationError("storage.db_connection_string is required for postgres", nil)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save writes the current configuration back to disk.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return helpers.NewConfigurationError("failed to serialize config", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return helpers.NewConfigurationError("failed to write config file", err)
	}
	return nil
}
