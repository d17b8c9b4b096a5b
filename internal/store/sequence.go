package store

import "context"

// SequenceStore issues gap-free, monotonically increasing integers scoped by
// a partition key (typically a fiscal-year code) and a prefix. Two concurrent
// callers for the same (partitionKey, prefix) never receive the same value,
// and the first call for an unseen key returns 1.
//
// Implementations must perform the increment-and-read as a single atomic
// server-side operation. Read-modify-write in the caller races and is not an
// acceptable implementation.
type SequenceStore interface {
	Next(ctx context.Context, partitionKey, prefix string) (int64, error)
}
