package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifies the subscription plan an organization is on.
type Plan string

const (
	PlanTrial      Plan = "trial"
	PlanStandard   Plan = "standard"
	PlanEnterprise Plan = "enterprise"
)

// Status is the lifecycle state of an organization. Organizations are never
// deleted; suspension is a status change.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Organization represents a customer organization (tenant) in the directory.
// The same logical record is stored twice: once in the central database and
// once in the organization's own tenant database. The tenant copy is
// authoritative for the organization's own data.
type Organization struct {
	ID             uuid.UUID // UUIDv7, per-database surrogate key
	Code           string    // human-readable, e.g. "MNT-25-26-3", unique in central
	Name           string
	Slug           string
	TenantDBName   string // physical database name, "slug-disambiguator"
	AdminName      string
	AdminEmail     string
	AdminPhone     string
	Plan           Plan
	UserLimit      int32
	Status         Status
	EnabledModules []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrganizationPatch is a sparse update applied identically to both copies of
// an organization record. Nil fields are left unchanged.
type OrganizationPatch struct {
	Name           *string
	AdminName      *string
	AdminEmail     *string
	AdminPhone     *string
	Plan           *Plan
	UserLimit      *int32
	Status         *Status
	EnabledModules *[]string
}

// Empty reports whether the patch would change nothing.
func (p OrganizationPatch) Empty() bool {
	return p.Name == nil &&
		p.AdminName == nil &&
		p.AdminEmail == nil &&
		p.AdminPhone == nil &&
		p.Plan == nil &&
		p.UserLimit == nil &&
		p.Status == nil &&
		p.EnabledModules == nil
}
