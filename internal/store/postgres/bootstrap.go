package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mintworks/mintra/internal/store"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/rs/zerolog/log"
)

//go:embed schema/central/*.sql schema/tenant/*.sql
var schemaFS embed.FS

// SchemaKind selects which schema set to apply: the central directory schema
// or the per-tenant schema.
type SchemaKind string

const (
	SchemaCentral SchemaKind = "central"
	SchemaTenant  SchemaKind = "tenant"
)

// schemaApplyMaxTries bounds retries after concurrent bootstrap collisions.
const schemaApplyMaxTries = 4

// EnsureSchema idempotently applies the schema set of the given kind to the
// database behind pool. Application is serialized across processes with a
// database-wide advisory lock; even so, CREATE IF NOT EXISTS statements can
// collide when two databases share system catalogs, so transient "already
// exists" races are retried with backoff a bounded number of times before
// failing fatally. Safe to call repeatedly and concurrently.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, kind SchemaKind) error {
	m := telemetry.GetMetrics()
	m.SchemaApplyTotal.Add(ctx, 1)

	files, err := loadSchemaFiles(kind)
	if err != nil {
		return err
	}

	operation := func() (struct{}, error) {
		if err := applySchemaFiles(ctx, pool, kind, files); err != nil {
			if isSchemaRace(err) {
				m.SchemaRaceRetriesTotal.Add(ctx, 1)
				log.Warn().
					Err(err).
					Str("kind", string(kind)).
					Msg("Schema apply collided with a concurrent bootstrap, retrying")
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 100 * time.Millisecond

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(schemaApplyMaxTries),
	)
	if err != nil {
		if isSchemaRace(err) {
			return &store.Fault{
				Kind: store.FaultSchemaRace,
				Err:  fmt.Errorf("schema apply retries exhausted: %w", err),
			}
		}
		return fmt.Errorf("failed to apply %s schema: %w", kind, err)
	}

	log.Debug().Str("kind", string(kind)).Msg("Schema ensured")
	return nil
}

// schemaFile is one embedded DDL file, ordered by its numeric filename
// prefix (e.g. "1_directory.sql").
type schemaFile struct {
	version int
	name    string
	content string
}

func loadSchemaFiles(kind SchemaKind) ([]schemaFile, error) {
	dir := "schema/" + string(kind)

	entries, err := schemaFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var files []schemaFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			log.Warn().Str("file", entry.Name()).Msg("Skipping schema file with invalid name format")
			continue
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			log.Warn().Str("file", entry.Name()).Err(err).Msg("Skipping schema file with invalid version number")
			continue
		}

		content, err := schemaFS.ReadFile(dir + "/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", entry.Name(), err)
		}

		files = append(files, schemaFile{
			version: version,
			name:    entry.Name(),
			content: string(content),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].version < files[j].version
	})

	return files, nil
}

// applySchemaFiles runs every DDL file on a single connection while holding
// the schema advisory lock. The lock is session-scoped, so releasing the
// connection drops it even if the unlock itself fails.
func applySchemaFiles(ctx context.Context, pool *pgxpool.Pool, kind SchemaKind, files []schemaFile) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	lockKey := "mintra:schema:" + string(kind)
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("failed to take schema advisory lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, lockKey); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to release schema advisory lock")
		}
	}()

	for _, f := range files {
		if _, err := conn.Exec(ctx, f.content); err != nil {
			return fmt.Errorf("schema file %s failed: %w", f.name, err)
		}
	}

	return nil
}
