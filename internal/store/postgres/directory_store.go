package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/store"
	"github.com/rs/zerolog/log"
)

// DirectoryStore implements store.DirectoryStore against the central
// database.
type DirectoryStore struct {
	pool *pgxpool.Pool
}

// NewDirectoryStore creates a central directory store backed by the central
// pool.
func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{
		pool: pool,
	}
}

const organizationColumns = `
	id, code, name, slug, tenant_db_name,
	admin_name, admin_email, admin_phone,
	plan, user_limit, status, enabled_modules,
	created_at, updated_at
`

// CreateOrganization inserts the central directory row for an organization.
func (s *DirectoryStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if err := insertOrganization(ctx, s.pool, org); err != nil {
		return err
	}

	log.Debug().
		Str("code", org.Code).
		Str("tenant_db", org.TenantDBName).
		Msg("Created organization directory row")

	return nil
}

// GetOrganization retrieves an organization by its code.
func (s *DirectoryStore) GetOrganization(ctx context.Context, code string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE code = $1`

	org, err := scanOrganization(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// ListOrganizations returns all organizations, newest first.
func (s *DirectoryStore) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// CreateAdmin inserts the central directory row for an organization's admin.
func (s *DirectoryStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if err := insertAdmin(ctx, s.pool, admin); err != nil {
		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			return store.ErrAdminAlreadyExists
		}
		return err
	}

	log.Debug().
		Str("org_code", admin.OrgCode).
		Msg("Created admin directory row")

	return nil
}

// GetAdmin retrieves the admin for an organization by org code.
func (s *DirectoryStore) GetAdmin(ctx context.Context, orgCode string) (*models.Admin, error) {
	admin, err := selectAdmin(ctx, s.pool, orgCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}
