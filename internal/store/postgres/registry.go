package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mintworks/mintra/internal/store"
	"github.com/mintworks/mintra/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// Registry owns the always-open pool to the central database and a
// process-wide cache of lazily created pools to tenant databases. Tenant
// pools share the central pool's host, credentials, and tuning; only the
// database name differs. Pools are held for the process lifetime and are
// never evicted.
type Registry struct {
	cfg     *PoolConfig
	central *pgxpool.Pool

	mu      sync.RWMutex
	tenants map[string]*tenantEntry

	// Creation and liveness seams, overridden in tests.
	openPool func(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error)
	pingPool func(ctx context.Context, pool *pgxpool.Pool) error
}

// tenantEntry guards per-tenant pool creation so a thundering herd of first
// callers for the same tenant shares a single creation attempt.
type tenantEntry struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// NewRegistry opens the central pool and returns a registry with an empty
// tenant cache.
func NewRegistry(ctx context.Context, cfg *PoolConfig) (*Registry, error) {
	central, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open central pool: %w", err)
	}

	log.Info().
		Int32("max_conns", cfg.MaxConns).
		Msg("Connected to central database")

	return &Registry{
		cfg:      cfg,
		central:  central,
		tenants:  make(map[string]*tenantEntry),
		openPool: pgxpool.NewWithConfig,
		pingPool: func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) },
	}, nil
}

// Central returns the pool for the central database.
func (r *Registry) Central() *pgxpool.Pool {
	return r.central
}

// Tenant returns the connection pool for the named tenant database, creating
// and caching it on first access. The first caller for an unseen tenant
// opens the pool and runs a liveness check; concurrent first callers block
// on the same attempt and share its outcome. A failed attempt caches
// nothing, so subsequent calls retry from scratch.
func (r *Registry) Tenant(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	m := telemetry.GetMetrics()

	r.mu.RLock()
	entry, ok := r.tenants[dbName]
	r.mu.RUnlock()

	if ok {
		m.TenantCacheHitsTotal.Add(ctx, 1)
	} else {
		m.TenantCacheMissesTotal.Add(ctx, 1)

		r.mu.Lock()
		entry, ok = r.tenants[dbName]
		if !ok {
			entry = &tenantEntry{}
			r.tenants[dbName] = entry
		}
		r.mu.Unlock()
	}

	entry.once.Do(func() {
		entry.pool, entry.err = r.openTenant(ctx, dbName)
	})

	if entry.err != nil {
		// Drop the failed entry so a later call can retry. Only the entry
		// this caller observed is removed; a newer successful entry stays.
		r.mu.Lock()
		if r.tenants[dbName] == entry {
			delete(r.tenants, dbName)
		}
		r.mu.Unlock()

		return nil, entry.err
	}

	return entry.pool, nil
}

// openTenant derives the tenant's pool config from the central template,
// opens the pool, and verifies liveness with a round-trip ping.
func (r *Registry) openTenant(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	poolCfg, err := r.cfg.parse()
	if err != nil {
		return nil, fmt.Errorf("failed to derive tenant pool config: %w", err)
	}
	poolCfg.ConnConfig.Database = dbName

	pool, err := r.openPool(ctx, poolCfg)
	if err != nil {
		return nil, &store.Fault{
			Kind:     store.FaultTenantUnreachable,
			TenantDB: dbName,
			Err:      fmt.Errorf("failed to open tenant pool: %w", err),
		}
	}

	if err := r.pingPool(ctx, pool); err != nil {
		pool.Close()
		return nil, &store.Fault{
			Kind:     store.FaultTenantUnreachable,
			TenantDB: dbName,
			Err:      fmt.Errorf("liveness check failed: %w", err),
		}
	}

	telemetry.GetMetrics().TenantPoolsActive.Add(ctx, 1)

	log.Info().
		Str("tenant_db", dbName).
		Msg("Opened tenant connection pool")

	return pool, nil
}

// Close closes the central pool and every cached tenant pool.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, entry := range r.tenants {
		if entry.pool != nil {
			entry.pool.Close()
		}
		delete(r.tenants, name)
	}

	r.central.Close()
}
