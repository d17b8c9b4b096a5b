package store

import (
	"errors"
	"fmt"
)

// FaultKind is a stable tag identifying a class of tenancy failure. Callers
// branch on the kind, never on driver error text.
type FaultKind string

const (
	// FaultTenantUnreachable means a tenant database connection or liveness
	// check failed. Nothing is cached on this path; the call may be retried.
	FaultTenantUnreachable FaultKind = "tenant_unreachable"

	// FaultProvisioningPartial means the physical tenant database was
	// created but a later provisioning step failed. The orphaned database
	// is reported for manual reconciliation and is never cleaned up or
	// retried automatically.
	FaultProvisioningPartial FaultKind = "provisioning_partial_failure"

	// FaultDualWriteConflict means a synchronized update failed (row count
	// mismatch or commit-ordering failure). Both sides were rolled back and
	// the entity is in its pre-call state.
	FaultDualWriteConflict FaultKind = "dual_write_conflict"

	// FaultSequenceOverflow means a formatted identifier exceeded the
	// configured maximum length. This is a business error and is never
	// retried internally.
	FaultSequenceOverflow FaultKind = "sequence_overflow"

	// FaultSchemaRace means concurrent schema bootstrap calls collided.
	// Retried internally with backoff; only surfaced when retries are
	// exhausted.
	FaultSchemaRace FaultKind = "schema_race_transient"
)

// Fault is the single structured error surfaced by the tenancy core. It
// carries enough identifying detail (org code, tenant db name, partition
// key) for a caller to retry or escalate without parsing driver errors.
type Fault struct {
	Kind         FaultKind
	OrgCode      string
	TenantDB     string
	PartitionKey string
	Err          error
}

func (f *Fault) Error() string {
	msg := string(f.Kind)
	if f.OrgCode != "" {
		msg += " org=" + f.OrgCode
	}
	if f.TenantDB != "" {
		msg += " tenant_db=" + f.TenantDB
	}
	if f.PartitionKey != "" {
		msg += " partition=" + f.PartitionKey
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is makes two faults of the same kind match under errors.Is, so callers can
// compare against a bare &Fault{Kind: ...} sentinel.
func (f *Fault) Is(target error) bool {
	var other *Fault
	if !errors.As(target, &other) {
		return false
	}
	return f.Kind == other.Kind
}

// FaultIs reports whether err is (or wraps) a Fault of the given kind.
func FaultIs(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
