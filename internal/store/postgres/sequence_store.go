package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// SequenceStore implements store.SequenceStore against the central database.
// The counter row is created lazily on first issue for a partition and only
// ever advanced by the upsert below.
type SequenceStore struct {
	pool *pgxpool.Pool
}

// NewSequenceStore creates a sequence store backed by the central pool.
func NewSequenceStore(pool *pgxpool.Pool) *SequenceStore {
	return &SequenceStore{
		pool: pool,
	}
}

// Next issues the next number for (partitionKey, prefix). The increment and
// read happen in one server-side statement: the insert takes the row lock on
// conflict, so concurrent callers serialize on the counter row and each sees
// a distinct value. A first call for an unseen key returns 1. Reading the
// counter and incrementing client-side would race and is deliberately not
// how this works.
func (s *SequenceStore) Next(ctx context.Context, partitionKey, prefix string) (int64, error) {
	query := `
		INSERT INTO sequence_counters (partition_key, prefix, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (partition_key, prefix)
		DO UPDATE SET
			last_number = sequence_counters.last_number + 1,
			updated_at = now()
		RETURNING last_number
	`

	var n int64
	err := s.pool.QueryRow(ctx, query, partitionKey, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to issue sequence number for %s/%s: %w", partitionKey, prefix, err)
	}

	telemetry.GetMetrics().SequenceIssuedTotal.Add(ctx, 1)

	log.Debug().
		Str("partition_key", partitionKey).
		Str("prefix", prefix).
		Int64("number", n).
		Msg("Issued sequence number")

	return n, nil
}
