package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "MNT", cfg.Identifier.OrgPrefix)
	require.Equal(t, "INV", cfg.Identifier.InvoicePrefix)
	require.Equal(t, 24, cfg.Identifier.MaxLength)

	require.Contains(t, cfg.Plans, "trial")
	require.Contains(t, cfg.Plans, "standard")
	require.Contains(t, cfg.Plans, "enterprise")
	require.Equal(t, int32(5), cfg.Plans["trial"].UserLimit)

	require.Equal(t, int32(30), cfg.Provision.CreateTimeoutSeconds)
	require.Equal(t, 5, cfg.Provision.ConnectMaxTries)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
identifier:
  org_prefix: ACME
  max_length: 32
plans:
  trial:
    user_limit: 3
    modules: [core]
provision:
  connect_max_tries: 8
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ACME", cfg.Identifier.OrgPrefix)
	require.Equal(t, 32, cfg.Identifier.MaxLength)
	require.Equal(t, int32(3), cfg.Plans["trial"].UserLimit)
	require.Equal(t, 8, cfg.Provision.ConnectMaxTries)

	// Untouched sections keep their defaults.
	require.Equal(t, "INV", cfg.Identifier.InvoicePrefix)
	require.Equal(t, int32(30), cfg.Provision.CreateTimeoutSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
identifier:
  max_length: 4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max_length")
}

func TestValidateRejectsBadPlan(t *testing.T) {
	cfg := Default()
	cfg.Plans["weird"] = PlanConfig{UserLimit: 0}

	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveProvisionSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "create timeout", mutate: func(c *Config) { c.Provision.CreateTimeoutSeconds = -1 }},
		{name: "connect max tries", mutate: func(c *Config) { c.Provision.ConnectMaxTries = -3 }},
		{name: "connect retry delay", mutate: func(c *Config) { c.Provision.ConnectRetryDelayMillis = -50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsNegativeRetryBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
provision:
  connect_max_tries: -1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	// A negative retry budget must be rejected at load time; converted to an
	// unsigned count it would mean an effectively unlimited retry loop.
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect_max_tries")
}
