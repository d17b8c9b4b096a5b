package tenancy

import (
	"fmt"
	"time"

	"github.com/mintworks/mintra/internal/store"
)

// FiscalYearCode returns the partition key for the fiscal year containing t.
// The platform's fiscal year runs April through March, so 2025-06-15 falls
// in "25-26" and 2026-02-01 does too.
func FiscalYearCode(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%02d-%02d", year%100, (year+1)%100)
}

// FormatOrgCode builds an organization code such as "MNT-25-26-3" and
// validates it against maxLen. Overflow is a terminal business error, not a
// generator bug, and is never truncated away.
func FormatOrgCode(prefix, yearCode string, n int64, maxLen int) (string, error) {
	return formatIdentifier(fmt.Sprintf("%s-%s-%d", prefix, yearCode, n), yearCode, maxLen)
}

// FormatInvoiceNumber builds an invoice number such as "INV/25-26/42" and
// validates it against maxLen.
func FormatInvoiceNumber(prefix, yearCode string, n int64, maxLen int) (string, error) {
	return formatIdentifier(fmt.Sprintf("%s/%s/%d", prefix, yearCode, n), yearCode, maxLen)
}

func formatIdentifier(id, partitionKey string, maxLen int) (string, error) {
	if len(id) > maxLen {
		return "", &store.Fault{
			Kind:         store.FaultSequenceOverflow,
			PartitionKey: partitionKey,
			Err:          fmt.Errorf("identifier %q exceeds maximum length %d", id, maxLen),
		}
	}
	return id, nil
}
