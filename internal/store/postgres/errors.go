package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mintworks/mintra/internal/store"
)

// mapDirectoryError maps PostgreSQL-specific errors from directory writes to
// sentinel errors. Returns the original error if it's not a PostgreSQL error
// or doesn't match known patterns.
func mapDirectoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: constraint %s", store.ErrOrganizationAlreadyExists, pgErr.ConstraintName)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s", store.ErrOrganizationNotFound, pgErr.Detail)

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("transaction conflict (retryable): %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, err)
	}
}

// isSchemaRace reports whether err is a collision between concurrent DDL
// appliers: two processes creating the same table/index/type at once. These
// are transient and retried by the bootstrapper.
func isSchemaRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgerrcode.DuplicateTable,
		pgerrcode.DuplicateObject,
		pgerrcode.DuplicateFunction,
		pgerrcode.DuplicateSchema,
		// CREATE TABLE IF NOT EXISTS still races on the pg_type row it
		// creates for the table's composite type.
		pgerrcode.UniqueViolation:
		return true
	case pgerrcode.LockNotAvailable, pgerrcode.DeadlockDetected:
		return true
	}

	return false
}

// isDuplicateDatabase reports whether err is CREATE DATABASE failing because
// the database already exists.
func isDuplicateDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DuplicateDatabase
}
