// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pulsewatch/pulsewatch/internal/logging"
	"github.com/pulsewatch/pulsewatch/internal/monitoring"
	"github.com/pulsewatch/pulsewatch/internal/tracing"
)

const defaultTxTimeout = time.Second * 60

type lazyTxContextKey struct{}

var txContextKey lazyTxContextKey

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// lazyTx wraps transaction state for lazy initialization.
type lazyTx struct {
	db        *sql.DB
	tx        TxInterface
	logger    logging.LoggerInterface
	committed bool
	cancel    context.CancelFunc
}

// get returns the transaction, creating it lazily on first call.
func (lt *lazyTx) get() (TxInterface, error) {
	if lt.tx != nil {
		return lt.tx, nil
	}

	// Use background context so the transaction isn't auto-rolled back when
	// the request context is canceled. A timeout keeps it from hanging.
	ctx, cancel := context.WithTimeout(context.Background(), defaultTxTimeout)
	tx, err := lt.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: false})
	if err != nil {
		cancel()
		return nil, err
	}

	lt.tx = tx
	lt.cancel = cancel
	return tx, nil
}

func (lt *lazyTx) isStarted() bool {
	return lt.tx != nil
}

type DBClient struct {
	// pool is the native PGX pool we hold to allow closing
	pool *pgxpool.Pool
	// db original instance to handle transactions
	db *sql.DB
	// dbRunner is the runner instance of choice
	dbRunner sq.BaseRunner

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement provides a StatementBuilderType configured to use the DBClient's
// database connection. If a transaction exists in the context, it is used
// (created lazily on first use).
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	if lt := lazyTxFromContext(ctx); lt != nil {
		tx, err := lt.get()
		if err != nil {
			// Log error but fall back to regular connection
			d.logger.Errorf("failed to create lazy transaction: %v", err)
		} else {
			return sq.StatementBuilder.
				PlaceholderFormat(sq.Dollar).
				RunWith(tx)
		}
	}

	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		RunWith(d.dbRunner)
}

func lazyTxFromContext(ctx context.Context) *lazyTx {
	if lt, ok := ctx.Value(txContextKey).(*lazyTx); ok {
		return lt
	}
	return nil
}

func contextWithLazyTx(ctx context.Context, lt *lazyTx) context.Context {
	return context.WithValue(ctx, txContextKey, lt)
}

// WithTx executes a function within a transaction context.
// The transaction is created lazily on first database access.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
// If no database operations occurred, no transaction is created or committed.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	lt := &lazyTx{
		db:     d.db,
		logger: d.logger,
	}
	txCtx := contextWithLazyTx(ctx, lt)

	defer func() {
		// Only rollback if transaction was started and not committed
		if lt.isStarted() && !lt.committed {
			if err := lt.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				d.logger.Errorf("failed to rollback transaction: %v", err)
			}
		}
		if lt.cancel != nil {
			lt.cancel()
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}

	if lt.isStarted() {
		if err := lt.tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %v", err)
		}
		lt.committed = true
	}

	return nil
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

// NewDBClient creates a new DBClient instance with the provided DSN and configuration options.
func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Fatalf("DSN validation failed, shutting down, err: %v", err)
	}

	if cfg.TracingEnabled {
		// otelpgx.NewTracer will use default global TracerProvider, just like our tracer struct
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = cfg.MaxConnLifetime
	config.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10 // Add 10% jitter to avoid thundering herd
	config.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %v", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			return nil, fmt.Errorf("failed to start metrics collection for database: %v", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %v", err)
	}

	d := new(DBClient)
	d.pool = pool
	d.db = db
	d.dbRunner = db

	d.tracer = tracer
	d.monitor = monitor
	d.logger = logger

	return d, nil
}
