package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

// Service implements LedgerService: permission-scoped queries and single/bulk
// mutations over the transaction ledger. Request-scoped and stateless — a
// storage session is borrowed for exactly one call.
type Service struct {
	storage  interfaces.StorageManager
	logger   *common.Logger
	calendar SettlementCalendar

	maxBulkRows      int
	maxPageLimit     int
	defaultPageLimit int
}

// NewService creates a ledger service from the engine configuration.
func NewService(storage interfaces.StorageManager, logger *common.Logger, cfg common.LedgerConfig) *Service {
	return &Service{
		storage:          storage,
		logger:           logger,
		calendar:         CalendarFromName(cfg.SettlementCalendar),
		maxBulkRows:      cfg.MaxBulkRows,
		maxPageLimit:     cfg.MaxPageLimit,
		defaultPageLimit: cfg.DefaultPageLimit,
	}
}

// authorizeWrite enforces per-row profile ownership: a non-admin principal may
// only write rows owned by its own profile. Violations abort the operation —
// never a silent rescope.
func (s *Service) authorizeWrite(p *models.Principal, clientProfileID string) error {
	if p == nil {
		return &models.AuthenticationError{}
	}
	if p.IsAdmin() {
		return nil
	}
	own := p.ProfileID()
	if own == "" {
		return &models.AuthorizationError{Reason: "principal has no client profile"}
	}
	if clientProfileID != own {
		return &models.AuthorizationError{Reason: "transaction belongs to another client profile"}
	}
	return nil
}

// List returns one permission-scoped page of ledger rows, sorted by
// transaction date descending then insertion order descending.
func (s *Service) List(ctx context.Context, principal *models.Principal, filters models.ListFilters, page, limit int) (*models.ListResult, error) {
	scope, err := BuildScope(ctx, s.storage.Profiles(), principal)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultPageLimit
	}
	if limit > s.maxPageLimit {
		limit = s.maxPageLimit
	}

	filter := BuildFilter(scope, filters)
	rows, total, err := s.storage.Transactions().Find(ctx, filter, interfaces.FindOptions{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.ListResult{
		Rows: rows,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Create calculates, validates, optionally duplicate-checks, and persists a
// single transaction. The duplicate advisory never blocks the write.
func (s *Service) Create(ctx context.Context, principal *models.Principal, input *models.Transaction, opts interfaces.CreateOptions) (*models.CreateResult, error) {
	if principal == nil {
		return nil, &models.AuthenticationError{}
	}
	if err := s.authorizeWrite(principal, input.ClientProfileID); err != nil {
		return nil, err
	}

	tx := CalculateFields(input, s.calendar)
	if violations := Validate(tx, time.Now()); len(violations) > 0 {
		return nil, &models.ValidationError{Violations: violations}
	}

	var advisory *models.DuplicateCheck
	if opts.CheckDuplicates {
		advisory = s.CheckDuplicate(ctx, tx)
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.EntryStatus == "" {
		tx.EntryStatus = models.StatusDraft
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	created, err := s.storage.Transactions().Create(ctx, tx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("id", created.ID).
		Str("type", string(created.Type)).
		Str("profile", created.ClientProfileID).
		Str("status", string(created.EntryStatus)).
		Msg("Transaction created")

	return &models.CreateResult{Created: created, DuplicateAdvisory: advisory}, nil
}

// Update merges the supplied fields onto the existing row, recalculates and
// revalidates, and persists. Entry status is carried over unless explicitly
// changed; updates are permitted at any status.
func (s *Service) Update(ctx context.Context, principal *models.Principal, id string, input interfaces.UpdateInput) (*models.Transaction, error) {
	if principal == nil {
		return nil, &models.AuthenticationError{}
	}

	existing, err := s.storage.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(principal, existing.ClientProfileID); err != nil {
		return nil, err
	}

	merged := existing.Clone()
	applyUpdate(merged, input)

	merged = CalculateFields(merged, s.calendar)
	if violations := Validate(merged, time.Now()); len(violations) > 0 {
		return nil, &models.ValidationError{Violations: violations}
	}

	merged.UpdatedAt = time.Now()

	updated, err := s.storage.Transactions().Update(ctx, merged)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Msg("Transaction updated")
	return updated, nil
}

// applyUpdate copies the supplied fields onto tx. Account references and the
// owning profile are identity fields and stay fixed across updates.
func applyUpdate(tx *models.Transaction, input interfaces.UpdateInput) {
	if input.TransactionDate != nil {
		tx.TransactionDate = *input.TransactionDate
	}
	if input.TradeDate != nil {
		tx.TradeDate = input.TradeDate
	}
	if input.SettlementDate != nil {
		tx.SettlementDate = input.SettlementDate
	}
	if input.Type != nil {
		tx.Type = *input.Type
	}
	if input.SecurityID != nil {
		tx.SecurityID = input.SecurityID
	}
	if input.Quantity != nil {
		tx.Quantity = input.Quantity
	}
	if input.Price != nil {
		tx.Price = input.Price
	}
	if input.Amount != nil {
		tx.Amount = input.Amount
	}
	if input.Fee != nil {
		tx.Fee = input.Fee
	}
	if input.Tax != nil {
		tx.Tax = input.Tax
	}
	if input.Description != nil {
		tx.Description = *input.Description
	}
	if input.Reference != nil {
		tx.Reference = *input.Reference
	}
	if input.EntryStatus != nil {
		tx.EntryStatus = *input.EntryStatus
	}
}

// Delete removes a DRAFT transaction. Deleting a POSTED row is a rejected
// precondition, surfaced as a conflict.
func (s *Service) Delete(ctx context.Context, principal *models.Principal, id string) error {
	if principal == nil {
		return &models.AuthenticationError{}
	}

	existing, err := s.storage.Transactions().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(principal, existing.ClientProfileID); err != nil {
		return err
	}
	if existing.EntryStatus == models.StatusPosted {
		return &models.ConflictError{Reason: "posted transactions cannot be deleted"}
	}

	if err := s.storage.Transactions().Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("id", id).Msg("Transaction deleted")
	return nil
}

// CashBalance reduces the principal's visible rows (after filters) to a
// signed balance.
func (s *Service) CashBalance(ctx context.Context, principal *models.Principal, filters models.ListFilters) (decimal.Decimal, error) {
	scope, err := BuildScope(ctx, s.storage.Profiles(), principal)
	if err != nil {
		return decimal.Zero, err
	}

	filter := BuildFilter(scope, filters)
	rows, _, err := s.storage.Transactions().Find(ctx, filter, interfaces.FindOptions{})
	if err != nil {
		return decimal.Zero, err
	}

	return CashBalance(rows), nil
}
