package store

import (
	"context"
	"errors"

	"github.com/mintworks/mintra/internal/models"
)

// Sentinel errors for directory operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrAdminNotFound             = errors.New("admin not found")
	ErrAdminAlreadyExists        = errors.New("admin already exists")
)

// DirectoryStore is the central database's view of the organization
// directory. Exactly one row exists per organization; the matching tenant
// copy is maintained by the dual-write synchronizer, not through this
// interface.
type DirectoryStore interface {
	// CreateOrganization inserts the directory row for a newly provisioned
	// organization. Returns ErrOrganizationAlreadyExists when the code or
	// tenant database name is already taken.
	CreateOrganization(ctx context.Context, org *models.Organization) error

	// GetOrganization retrieves an organization by its human-readable code.
	// Returns ErrOrganizationNotFound if no such organization exists.
	GetOrganization(ctx context.Context, code string) (*models.Organization, error)

	// ListOrganizations returns all organizations ordered by creation time,
	// newest first.
	ListOrganizations(ctx context.Context) ([]*models.Organization, error)

	// CreateAdmin inserts the directory row for an organization's admin.
	// Returns ErrAdminAlreadyExists when the organization already has one.
	CreateAdmin(ctx context.Context, admin *models.Admin) error

	// GetAdmin retrieves the admin for an organization by org code.
	// Returns ErrAdminNotFound if no such admin exists.
	GetAdmin(ctx context.Context, orgCode string) (*models.Admin, error)
}
