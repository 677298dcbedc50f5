// Package postgres implements the repository interfaces over an ACID
// relational store via pgx. Bulk atomicity uses one pgx transaction with
// per-row savepoints.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.StorageManager = (*Manager)(nil)

// Manager implements interfaces.StorageManager over a pgx connection pool.
type Manager struct {
	pool   *pgxpool.Pool
	logger *common.Logger
}

// NewManager connects the pool, ensures the schema, and returns the manager.
func NewManager(ctx context.Context, logger *common.Logger, cfg *common.PostgresConfig) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.GetConnectTimeout()
	if cfg.ApplicationName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	m := &Manager{pool: pool, logger: logger}
	if err := m.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Int("max_conns", int(poolCfg.MaxConns)).Msg("Postgres storage initialized")
	return m, nil
}

func (m *Manager) Transactions() interfaces.TransactionStore {
	return &TransactionStore{db: m.pool}
}

func (m *Manager) Profiles() interfaces.ProfileStore {
	return &ProfileStore{db: m.pool}
}

// WithinTransaction runs fn inside one pgx transaction. The store handed to
// fn wraps each write in a savepoint, so a row-specific failure rolls back
// that row alone while the outer scope stays open. An error from fn, or a
// begin/commit failure, rolls back the whole scope.
func (m *Manager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, txStore interfaces.TransactionStore) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &TransactionStore{db: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	m.pool.Close()
	return nil
}
