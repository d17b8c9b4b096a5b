package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mintworks/mintra/internal/models"
)

// queryer is the subset of pgx query methods shared by *pgxpool.Pool and
// pgx.Tx. The directory rows live in both the central and tenant databases
// with the same shape, so the scan/insert/patch helpers here are reused by
// both stores and by the dual writer's transactions.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// errPatchRowCount signals that a patch did not affect exactly one row. The
// dual writer converts it into a rolled-back conflict.
var errPatchRowCount = errors.New("patch affected an unexpected number of rows")

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.ID,
		&org.Code,
		&org.Name,
		&org.Slug,
		&org.TenantDBName,
		&org.AdminName,
		&org.AdminEmail,
		&org.AdminPhone,
		&org.Plan,
		&org.UserLimit,
		&org.Status,
		&org.EnabledModules,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func insertOrganization(ctx context.Context, q queryer, org *models.Organization) error {
	query := `
		INSERT INTO organizations (
			id, code, name, slug, tenant_db_name,
			admin_name, admin_email, admin_phone,
			plan, user_limit, status, enabled_modules,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := q.Exec(ctx, query,
		org.ID,
		org.Code,
		org.Name,
		org.Slug,
		org.TenantDBName,
		org.AdminName,
		org.AdminEmail,
		org.AdminPhone,
		org.Plan,
		org.UserLimit,
		org.Status,
		org.EnabledModules,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return mapDirectoryError(err)
	}

	return nil
}

func insertAdmin(ctx context.Context, q queryer, admin *models.Admin) error {
	query := `
		INSERT INTO organization_admins (
			id, org_code, full_name, email, phone, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := q.Exec(ctx, query,
		admin.ID,
		admin.OrgCode,
		admin.FullName,
		admin.Email,
		admin.Phone,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return mapDirectoryError(err)
	}

	return nil
}

func selectAdmin(ctx context.Context, q queryer, orgCode string) (*models.Admin, error) {
	query := `
		SELECT id, org_code, full_name, email, phone, created_at, updated_at
		FROM organization_admins
		WHERE org_code = $1
	`

	var admin models.Admin
	err := q.QueryRow(ctx, query, orgCode).Scan(
		&admin.ID,
		&admin.OrgCode,
		&admin.FullName,
		&admin.Email,
		&admin.Phone,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &admin, nil
}

// applyOrganizationPatch updates the organization row identified by code,
// setting only the patch's non-nil fields. Exactly one row must be affected;
// anything else returns errPatchRowCount.
func applyOrganizationPatch(ctx context.Context, q queryer, code string, patch models.OrganizationPatch) error {
	var (
		set  []string
		args = []any{code}
	)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.AdminName != nil {
		add("admin_name", *patch.AdminName)
	}
	if patch.AdminEmail != nil {
		add("admin_email", *patch.AdminEmail)
	}
	if patch.AdminPhone != nil {
		add("admin_phone", *patch.AdminPhone)
	}
	if patch.Plan != nil {
		add("plan", *patch.Plan)
	}
	if patch.UserLimit != nil {
		add("user_limit", *patch.UserLimit)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.EnabledModules != nil {
		add("enabled_modules", *patch.EnabledModules)
	}

	set = append(set, "updated_at = now()")

	query := "UPDATE organizations SET " + strings.Join(set, ", ") + " WHERE code = $1"

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapDirectoryError(err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: code=%s rows=%d", errPatchRowCount, code, tag.RowsAffected())
	}

	return nil
}

// applyAdminPatch updates the admin row identified by org code, setting only
// the patch's non-nil fields. Exactly one row must be affected.
func applyAdminPatch(ctx context.Context, q queryer, orgCode string, patch models.AdminPatch) error {
	var (
		set  []string
		args = []any{orgCode}
	)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}

	set = append(set, "updated_at = now()")

	query := "UPDATE organization_admins SET " + strings.Join(set, ", ") + " WHERE org_code = $1"

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapDirectoryError(err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: org_code=%s rows=%d", errPatchRowCount, orgCode, tag.RowsAffected())
	}

	return nil
}
