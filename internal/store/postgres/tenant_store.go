package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/store"
	"github.com/rs/zerolog/log"
)

// TenantStore reads and writes the directory rows held inside tenant
// databases. Every operation resolves its pool through the registry, so the
// first touch of a tenant opens and caches its pool.
type TenantStore struct {
	registry *Registry
}

// NewTenantStore creates a tenant store over the registry.
func NewTenantStore(registry *Registry) *TenantStore {
	return &TenantStore{
		registry: registry,
	}
}

// Connect establishes (or reuses) the tenant's connection pool, verifying
// liveness. The provisioner calls this in a bounded retry loop while a
// freshly created database settles.
func (s *TenantStore) Connect(ctx context.Context, dbName string) error {
	_, err := s.registry.Tenant(ctx, dbName)
	return err
}

// EnsureSchema applies the tenant schema set to the named database.
func (s *TenantStore) EnsureSchema(ctx context.Context, dbName string) error {
	pool, err := s.registry.Tenant(ctx, dbName)
	if err != nil {
		return err
	}
	return EnsureSchema(ctx, pool, SchemaTenant)
}

// Seed writes the organization's own directory row and its admin row into
// the tenant database in a single transaction. Called once per tenant at the
// end of provisioning.
func (s *TenantStore) Seed(ctx context.Context, dbName string, org *models.Organization, admin *models.Admin) error {
	pool, err := s.registry.Tenant(ctx, dbName)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tenant seed transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if err := insertOrganization(ctx, tx, org); err != nil {
		return fmt.Errorf("failed to seed tenant organization row: %w", err)
	}

	if err := insertAdmin(ctx, tx, admin); err != nil {
		return fmt.Errorf("failed to seed tenant admin row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tenant seed: %w", err)
	}

	log.Debug().
		Str("code", org.Code).
		Str("tenant_db", dbName).
		Msg("Seeded tenant directory rows")

	return nil
}

// GetOrganization reads the tenant's copy of the organization row.
func (s *TenantStore) GetOrganization(ctx context.Context, dbName, code string) (*models.Organization, error) {
	pool, err := s.registry.Tenant(ctx, dbName)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE code = $1`

	org, err := scanOrganization(pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get tenant organization: %w", err)
	}

	return org, nil
}

// GetAdmin reads the tenant's copy of the admin row.
func (s *TenantStore) GetAdmin(ctx context.Context, dbName, orgCode string) (*models.Admin, error) {
	pool, err := s.registry.Tenant(ctx, dbName)
	if err != nil {
		return nil, err
	}

	admin, err := selectAdmin(ctx, pool, orgCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get tenant admin: %w", err)
	}

	return admin, nil
}
