package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mintworks/mintra/internal/models"
	"github.com/mintworks/mintra/internal/store"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// DualWriter applies the same patch to the tenant and central copies of a
// directory record as one conceptual unit, without two-phase commit. Both
// sides run inside their own transaction; the patch is applied tenant-side
// first and must affect exactly one row on each side; the tenant transaction
// commits strictly before the central one. On any failure before the tenant
// commit, both sides roll back and the record is left untouched.
//
// If the process dies between the two commits, the tenant copy is
// authoritative and a reconciliation pass must replay it into the central
// directory. That window is the accepted cost of avoiding a distributed
// transaction coordinator.
type DualWriter struct {
	registry *Registry

	// beforeCentralCommit runs between the tenant commit and the central
	// commit. Tests use it to fault the crash window; nil in production.
	beforeCentralCommit func() error
}

// NewDualWriter creates a dual writer over the registry.
func NewDualWriter(registry *Registry) *DualWriter {
	return &DualWriter{
		registry: registry,
	}
}

// UpdateOrganization applies patch to both copies of the organization record
// and returns the central copy after commit.
func (w *DualWriter) UpdateOrganization(ctx context.Context, code string, patch models.OrganizationPatch) (*models.Organization, error) {
	dbName, err := w.lookupTenantDB(ctx, code)
	if err != nil {
		return nil, err
	}

	err = w.run(ctx, code, dbName, func(ctx context.Context, q queryer) error {
		return applyOrganizationPatch(ctx, q, code, patch)
	})
	if err != nil {
		return nil, err
	}

	return NewDirectoryStore(w.registry.Central()).GetOrganization(ctx, code)
}

// UpdateAdmin applies patch to both copies of the organization's admin
// record and returns the central copy after commit.
func (w *DualWriter) UpdateAdmin(ctx context.Context, orgCode string, patch models.AdminPatch) (*models.Admin, error) {
	dbName, err := w.lookupTenantDB(ctx, orgCode)
	if err != nil {
		return nil, err
	}

	err = w.run(ctx, orgCode, dbName, func(ctx context.Context, q queryer) error {
		return applyAdminPatch(ctx, q, orgCode, patch)
	})
	if err != nil {
		return nil, err
	}

	return NewDirectoryStore(w.registry.Central()).GetAdmin(ctx, orgCode)
}

// lookupTenantDB resolves the organization's physical database name from the
// central directory.
func (w *DualWriter) lookupTenantDB(ctx context.Context, code string) (string, error) {
	var dbName string
	err := w.registry.Central().
		QueryRow(ctx, `SELECT tenant_db_name FROM organizations WHERE code = $1`, code).
		Scan(&dbName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrOrganizationNotFound
		}
		return "", fmt.Errorf("failed to resolve tenant database for %s: %w", code, err)
	}
	return dbName, nil
}

// run executes the dual-write protocol, invoking apply once inside each
// side's transaction.
func (w *DualWriter) run(ctx context.Context, code, dbName string, apply func(context.Context, queryer) error) error {
	m := telemetry.GetMetrics()
	m.DualWriteTotal.Add(ctx, 1)
	started := time.Now()

	conflict := func(err error) error {
		m.DualWriteConflictsTotal.Add(ctx, 1)
		return &store.Fault{
			Kind:     store.FaultDualWriteConflict,
			OrgCode:  code,
			TenantDB: dbName,
			Err:      err,
		}
	}

	tenantPool, err := w.registry.Tenant(ctx, dbName)
	if err != nil {
		return err
	}

	tenantTx, err := tenantPool.Begin(ctx)
	if err != nil {
		return conflict(fmt.Errorf("failed to begin tenant transaction: %w", err))
	}
	defer tenantTx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	centralTx, err := w.registry.Central().Begin(ctx)
	if err != nil {
		return conflict(fmt.Errorf("failed to begin central transaction: %w", err))
	}
	defer centralTx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	// Tenant side first: it is the source of truth, so it must never trail
	// a central write.
	if err := apply(ctx, tenantTx); err != nil {
		return conflict(fmt.Errorf("tenant-side update failed: %w", err))
	}

	if err := apply(ctx, centralTx); err != nil {
		return conflict(fmt.Errorf("central-side update failed: %w", err))
	}

	if err := tenantTx.Commit(ctx); err != nil {
		return conflict(fmt.Errorf("tenant commit failed: %w", err))
	}

	if w.beforeCentralCommit != nil {
		if err := w.beforeCentralCommit(); err != nil {
			return conflict(fmt.Errorf("aborted before central commit (tenant copy committed): %w", err))
		}
	}

	if err := centralTx.Commit(ctx); err != nil {
		// The tenant commit already landed. The central directory trails
		// until a reconciliation pass replays the tenant copy.
		log.Error().
			Err(err).
			Str("code", code).
			Str("tenant_db", dbName).
			Msg("Central commit failed after tenant commit, directories diverged")
		return conflict(fmt.Errorf("central commit failed after tenant commit: %w", err))
	}

	m.DualWriteDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	log.Debug().
		Str("code", code).
		Str("tenant_db", dbName).
		Dur("duration", time.Since(started)).
		Msg("Dual-write committed")

	return nil
}
