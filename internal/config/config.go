package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the platform configuration loaded from an optional YAML file.
// Every field has a usable default, so a missing file yields a working
// configuration.
type Config struct {
	Identifier IdentifierConfig      `yaml:"identifier"`
	Plans      map[string]PlanConfig `yaml:"plans"`
	Provision  ProvisionConfig       `yaml:"provision"`
}

// IdentifierConfig controls how display identifiers are built from sequence
// numbers.
type IdentifierConfig struct {
	// OrgPrefix is the prefix for organization codes, e.g. "MNT" in
	// "MNT-25-26-3".
	OrgPrefix string `yaml:"org_prefix"`

	// InvoicePrefix is the prefix for invoice numbers, e.g. "INV" in
	// "INV/25-26/42".
	InvoicePrefix string `yaml:"invoice_prefix"`

	// MaxLength is the maximum length of a formatted identifier. Formatting
	// a longer identifier is a terminal business error, never a truncation.
	MaxLength int `yaml:"max_length"`
}

// PlanConfig holds the defaults applied when an organization is provisioned
// on a subscription plan.
type PlanConfig struct {
	UserLimit int32    `yaml:"user_limit"`
	Modules   []string `yaml:"modules"`
}

// ProvisionConfig tunes the provisioning saga.
type ProvisionConfig struct {
	// CreateTimeoutSeconds bounds the CREATE DATABASE statement. A timed-out
	// create may still have committed server-side, so the saga checks for
	// the database before any retry.
	CreateTimeoutSeconds int32 `yaml:"create_timeout_seconds"`

	// ConnectMaxTries bounds the wait-for-connectable retry loop after the
	// tenant database is created. Exhaustion is a fatal provisioning error.
	ConnectMaxTries int `yaml:"connect_max_tries"`

	// ConnectRetryDelayMillis is the initial delay between connect attempts;
	// subsequent delays back off exponentially.
	ConnectRetryDelayMillis int `yaml:"connect_retry_delay_millis"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads the YAML file at path and fills in defaults for anything it
// does not set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Identifier.OrgPrefix == "" {
		c.Identifier.OrgPrefix = "MNT"
	}
	if c.Identifier.InvoicePrefix == "" {
		c.Identifier.InvoicePrefix = "INV"
	}
	if c.Identifier.MaxLength == 0 {
		c.Identifier.MaxLength = 24
	}

	if c.Plans == nil {
		c.Plans = map[string]PlanConfig{
			"trial":      {UserLimit: 5, Modules: []string{"core"}},
			"standard":   {UserLimit: 25, Modules: []string{"core", "billing"}},
			"enterprise": {UserLimit: 250, Modules: []string{"core", "billing", "reports"}},
		}
	}

	if c.Provision.CreateTimeoutSeconds == 0 {
		c.Provision.CreateTimeoutSeconds = 30
	}
	if c.Provision.ConnectMaxTries == 0 {
		c.Provision.ConnectMaxTries = 5
	}
	if c.Provision.ConnectRetryDelayMillis == 0 {
		c.Provision.ConnectRetryDelayMillis = 250
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Identifier.MaxLength < 8 {
		return fmt.Errorf("identifier max_length must be at least 8, got %d", c.Identifier.MaxLength)
	}
	for name, plan := range c.Plans {
		if plan.UserLimit <= 0 {
			return fmt.Errorf("plan %s: user_limit must be positive", name)
		}
	}
	if c.Provision.CreateTimeoutSeconds <= 0 {
		return fmt.Errorf("provision create_timeout_seconds must be positive, got %d", c.Provision.CreateTimeoutSeconds)
	}
	// A non-positive retry budget would wrap to an unbounded uint in the
	// backoff loop.
	if c.Provision.ConnectMaxTries <= 0 {
		return fmt.Errorf("provision connect_max_tries must be positive, got %d", c.Provision.ConnectMaxTries)
	}
	if c.Provision.ConnectRetryDelayMillis <= 0 {
		return fmt.Errorf("provision connect_retry_delay_millis must be positive, got %d", c.Provision.ConnectRetryDelayMillis)
	}
	return nil
}
