package interfaces

import (
	"context"
	"time"

	"github.com/meridianwealth/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// CreateOptions configures single-create behavior.
type CreateOptions struct {
	// CheckDuplicates runs the advisory natural-key lookup. Defaults to true
	// at the API boundary; the advisory never blocks the write.
	CheckDuplicates bool
}

// UpdateInput carries the partial fields of an update. Nil fields are left
// untouched; entry status is carried over unless explicitly changed.
type UpdateInput struct {
	TransactionDate *time.Time              `json:"transaction_date,omitempty"`
	TradeDate       *time.Time              `json:"trade_date,omitempty"`
	SettlementDate  *time.Time              `json:"settlement_date,omitempty"`
	Type            *models.TransactionType `json:"transaction_type,omitempty"`
	SecurityID      *string                 `json:"security_id,omitempty"`
	Quantity        *decimal.Decimal        `json:"quantity,omitempty"`
	Price           *decimal.Decimal        `json:"price,omitempty"`
	Amount          *decimal.Decimal        `json:"amount,omitempty"`
	Fee             *decimal.Decimal        `json:"fee,omitempty"`
	Tax             *decimal.Decimal        `json:"tax,omitempty"`
	Description     *string                 `json:"description,omitempty"`
	Reference       *string                 `json:"reference,omitempty"`
	EntryStatus     *models.EntryStatus     `json:"entry_status,omitempty"`
}

// BulkSelector narrows bulk post / delete-drafts to an account and/or an
// explicit transaction id list, on top of the principal's permission scope.
type BulkSelector struct {
	AccountID      string   `json:"account_id,omitempty"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
}

// LedgerService is the transaction ledger engine: permission-scoped queries
// and single/bulk mutations over ledger rows.
type LedgerService interface {
	List(ctx context.Context, principal *models.Principal, filters models.ListFilters, page, limit int) (*models.ListResult, error)
	Create(ctx context.Context, principal *models.Principal, input *models.Transaction, opts CreateOptions) (*models.CreateResult, error)
	Update(ctx context.Context, principal *models.Principal, id string, input UpdateInput) (*models.Transaction, error)
	Delete(ctx context.Context, principal *models.Principal, id string) error

	BulkCreate(ctx context.Context, principal *models.Principal, inputs []*models.Transaction) (*models.BulkCreateResult, error)
	BulkPost(ctx context.Context, principal *models.Principal, sel BulkSelector) (int, error)
	BulkDeleteDrafts(ctx context.Context, principal *models.Principal, sel BulkSelector) (int, error)
	BulkUpdateStatus(ctx context.Context, principal *models.Principal, ids []string, status models.EntryStatus) (int, error)

	// CashBalance reduces the principal's visible rows (after filters) to a
	// signed balance.
	CashBalance(ctx context.Context, principal *models.Principal, filters models.ListFilters) (decimal.Decimal, error)
}
