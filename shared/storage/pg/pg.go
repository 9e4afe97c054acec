// Package pg provides core PostgreSQL database primitives for storage layers.
//
// Core Components:
//   - Querier: Interface for transaction-agnostic database operations
//   - WithTx: Helper for managing database transactions
//   - Connect: Configurable database connection establishment
//   - Migrate: Embedded goose migrations for the forum schema
package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Querier is satisfied by both *sql.DB and *sql.Tx, so the same query
// helpers work inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ConnectionConfig holds database connection pool settings.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns defaults suitable for the API server.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// LightweightConnectionConfig is for the operator CLI and other short-lived tools.
func LightweightConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// Connect establishes and verifies a connection to the PostgreSQL database.
func Connect(cfg config.Pg, connCfg ConnectionConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(connCfg.MaxOpenConns)
	db.SetMaxIdleConns(connCfg.MaxIdleConns)
	db.SetConnMaxLifetime(connCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(connCfg.ConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("database connected", "host", cfg.Host, "dbname", cfg.Dbname)
	return db, nil
}

// Migrate applies all pending embedded migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	logger.Log.Info("database migrations applied")
	return nil
}

// WithTx executes fn within a transaction. The transaction is rolled back
// when fn returns an error and committed otherwise.
//
// Usage:
//
//	err := pg.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    if err := someOperation(ctx, tx, data); err != nil {
//	        return err // Triggers rollback
//	    }
//	    return nil // Triggers commit
//	})
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if transaction is already committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique_violation,
// optionally restricted to one constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
