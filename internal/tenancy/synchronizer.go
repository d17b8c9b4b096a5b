package tenancy

import (
	"context"
	"fmt"

	"github.com/mintworks/mintra/internal/models"
	"github.com/rs/zerolog/log"
)

// DirectoryWriter is the dual-write boundary: it applies one patch to both
// the tenant and central copies of a record, or to neither.
type DirectoryWriter interface {
	UpdateOrganization(ctx context.Context, code string, patch models.OrganizationPatch) (*models.Organization, error)
	UpdateAdmin(ctx context.Context, orgCode string, patch models.AdminPatch) (*models.Admin, error)
}

// Synchronizer is the inbound surface for directory updates. It validates
// patches and delegates the dual-write protocol to the writer.
type Synchronizer struct {
	writer DirectoryWriter
}

// NewSynchronizer creates a synchronizer over the given dual writer.
func NewSynchronizer(writer DirectoryWriter) *Synchronizer {
	return &Synchronizer{
		writer: writer,
	}
}

// UpdateOrganization applies patch to both copies of the organization
// record.
func (s *Synchronizer) UpdateOrganization(ctx context.Context, code string, patch models.OrganizationPatch) (*models.Organization, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("organization patch for %s is empty", code)
	}

	org, err := s.writer.UpdateOrganization(ctx, code, patch)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("code", code).
		Msg("Updated organization in both directories")

	return org, nil
}

// UpdateAdmin applies patch to both copies of the organization's admin
// record.
func (s *Synchronizer) UpdateAdmin(ctx context.Context, orgCode string, patch models.AdminPatch) (*models.Admin, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("admin patch for %s is empty", orgCode)
	}

	admin, err := s.writer.UpdateAdmin(ctx, orgCode, patch)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("org_code", orgCode).
		Msg("Updated admin in both directories")

	return admin, nil
}
