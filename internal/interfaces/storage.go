// Package interfaces defines service and storage contracts for the ledger engine.
package interfaces

import (
	"context"

	"github.com/meridianwealth/ledger/internal/models"
)

// StorageManager coordinates the repository stores. The backing engine is an
// ACID-transactional relational store; implementations here are adapters only.
type StorageManager interface {
	Transactions() TransactionStore
	Profiles() ProfileStore

	// WithinTransaction runs fn inside one atomic storage-transaction scope.
	// The TransactionStore passed to fn writes within that scope. A row-specific
	// persistence failure returned by an individual store call does not poison
	// the open scope (savepoint semantics); an error returned by fn, or a
	// systemic begin/commit failure, rolls back everything written in the scope.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, txStore TransactionStore) error) error

	Close() error
}

// FindOptions configures pagination for transaction queries. Page is 1-based;
// a Limit <= 0 returns all matching rows. Ordering is always transaction date
// descending, then insertion order descending.
type FindOptions struct {
	Page  int
	Limit int
}

// TransactionStore persists ledger rows.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error

	// Find returns one page of rows matching the filter plus the unpaged total.
	Find(ctx context.Context, filter models.TransactionFilter, opts FindOptions) ([]*models.Transaction, int, error)

	// FindByNaturalKey performs a global (not permission-scoped) existence
	// lookup for duplicate detection. Returns a NotFoundError when absent.
	FindByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Transaction, error)

	// UpdateStatus sets entry_status on every row matching the filter and
	// returns the affected count.
	UpdateStatus(ctx context.Context, filter models.TransactionFilter, status models.EntryStatus) (int, error)

	// DeleteMatching removes every row matching the filter and returns the
	// affected count.
	DeleteMatching(ctx context.Context, filter models.TransactionFilter) (int, error)
}

// ProfileStore reads client profiles for permission-scope resolution.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.ClientProfile, error)

	// ListChildren returns profiles whose parent_client_id equals parentID
	// (direct children only).
	ListChildren(ctx context.Context, parentID string) ([]*models.ClientProfile, error)
}
