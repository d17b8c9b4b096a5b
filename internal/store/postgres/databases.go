package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrDatabaseExists is returned by CreateDatabase when the target database
// already exists on the server.
var ErrDatabaseExists = errors.New("database already exists")

// TenantDatabases creates and inspects physical tenant databases on the
// server behind the central pool.
type TenantDatabases struct {
	registry *Registry
}

// NewTenantDatabases creates a tenant database admin over the registry.
func NewTenantDatabases(registry *Registry) *TenantDatabases {
	return &TenantDatabases{
		registry: registry,
	}
}

// Create issues CREATE DATABASE for dbName on the central connection.
// CREATE DATABASE cannot run inside a transaction, so this step is never
// atomic with the rest of provisioning; the caller owns the consequences of
// a later failure.
func (d *TenantDatabases) Create(ctx context.Context, dbName string) error {
	// Tenant names carry hyphens, so the identifier must be quoted.
	stmt := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()

	if _, err := d.registry.Central().Exec(ctx, stmt); err != nil {
		if isDuplicateDatabase(err) {
			return fmt.Errorf("%w: %s", ErrDatabaseExists, dbName)
		}
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}

	log.Info().Str("tenant_db", dbName).Msg("Created tenant database")
	return nil
}

// Exists reports whether dbName exists on the server. Used to decide whether
// a timed-out CREATE DATABASE actually committed before retrying it.
func (d *TenantDatabases) Exists(ctx context.Context, dbName string) (bool, error) {
	var exists bool
	err := d.registry.Central().
		QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	return exists, nil
}
