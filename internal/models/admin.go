package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is the human administrator tied 1:1 to an organization. Like the
// organization record itself it is duplicated across the central and tenant
// databases under the dual-write discipline.
type Admin struct {
	ID        uuid.UUID // UUIDv7, per-database surrogate key
	OrgCode   string
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminPatch is a sparse update applied identically to both copies of an
// admin record. Nil fields are left unchanged.
type AdminPatch struct {
	FullName *string
	Email    *string
	Phone    *string
}

// Empty reports whether the patch would change nothing.
func (p AdminPatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil
}
