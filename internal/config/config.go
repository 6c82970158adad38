// Package config loads the runtime settings of the upgrades binary.
//
// Settings come from a YAML file decoded in strict mode, so a misspelled key
// is an error instead of a silently ignored line. Fields missing from the
// file keep their defaults; command-line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	errlist "github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Game content lives in the catalog, not here.
type Config struct {
	// TickInterval is how often production is credited while playing.
	TickInterval time.Duration `yaml:"tick_interval"`

	// AutosaveInterval is how often the session is saved. Zero disables
	// autosave; a final save still happens on exit.
	AutosaveInterval time.Duration `yaml:"autosave_interval"`

	// OfflineCredit credits production for the time the game was closed.
	OfflineCredit bool `yaml:"offline_credit"`

	// Database is the sqlite file holding save slots.
	Database string `yaml:"database"`

	// Slot names the save slot to use.
	Slot string `yaml:"slot"`

	// History is how many saves are kept per slot.
	History int `yaml:"history"`

	// Catalog is a CUE catalog file. Empty means the built-in catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Listen is the address of the websocket feed. Empty disables it.
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TickInterval:     100 * time.Millisecond,
		AutosaveInterval: 5 * time.Second,
		OfflineCredit:    true,
		Database:         "upgrades.db",
		Slot:             "main",
		History:          10,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. An empty
// document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with the settings at once.
func (c *Config) Validate() error {
	el := errlist.NewErrorList()

	if c.TickInterval < 10*time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 10ms, got %s", c.TickInterval))
	}
	if c.AutosaveInterval < 0 {
		el.Add(fmt.Errorf("autosave_interval must not be negative"))
	}
	if c.AutosaveInterval > 0 && c.AutosaveInterval < c.TickInterval {
		el.Add(fmt.Errorf("autosave_interval %s is shorter than tick_interval %s", c.AutosaveInterval, c.TickInterval))
	}
	if c.Database == "" {
		el.Add(fmt.Errorf("database is required"))
	}
	if c.Slot == "" {
		el.Add(fmt.Errorf("slot is required"))
	}
	if c.History < 1 {
		el.Add(fmt.Errorf("history must be at least 1, got %d", c.History))
	}
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			el.Add(fmt.Errorf("listen: %w", err))
		}
	}

	return el.Err()
}
