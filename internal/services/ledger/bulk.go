package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

// pendingRow pairs a calculated, validated input with its 1-based row number
// for Phase 2 persistence.
type pendingRow struct {
	row int
	tx  *models.Transaction
}

// BulkCreate imports up to maxBulkRows transactions with partial-success
// semantics.
//
// Phase 1 calculates and validates every row independently (including the
// profile-ownership check) without touching storage; failing rows collect
// into the failed list keyed by 1-based row number.
//
// Phase 2 persists all passing rows inside one atomic storage-transaction
// scope. A row-specific persistence failure inside the open scope is caught
// per row (savepoint semantics) while its peers still commit; a systemic
// failure aborts the scope and nothing is persisted.
func (s *Service) BulkCreate(ctx context.Context, principal *models.Principal, inputs []*models.Transaction) (*models.BulkCreateResult, error) {
	if principal == nil {
		return nil, &models.AuthenticationError{}
	}
	if len(inputs) == 0 {
		return nil, &models.ValidationError{Violations: []string{"at least one transaction is required"}}
	}
	if len(inputs) > s.maxBulkRows {
		return nil, &models.ValidationError{Violations: []string{
			fmt.Sprintf("bulk create accepts at most %d transactions per call", s.maxBulkRows)}}
	}

	result := &models.BulkCreateResult{Total: len(inputs)}
	now := time.Now()

	// Phase 1: validate-all, no storage writes.
	var pending []pendingRow
	for i, input := range inputs {
		row := i + 1
		if input == nil {
			result.Failed = append(result.Failed, models.BulkRowError{Row: row, Errors: []string{"transaction is empty"}})
			continue
		}
		if err := s.authorizeWrite(principal, input.ClientProfileID); err != nil {
			result.Failed = append(result.Failed, models.BulkRowError{Row: row, Errors: []string{err.Error()}})
			continue
		}
		tx := CalculateFields(input, s.calendar)
		if violations := Validate(tx, now); len(violations) > 0 {
			result.Failed = append(result.Failed, models.BulkRowError{Row: row, Errors: violations})
			continue
		}
		pending = append(pending, pendingRow{row: row, tx: tx})
	}

	if len(pending) == 0 {
		result.Status = models.BulkFailure
		return result, nil
	}

	// Phase 2: persist-valid inside one transaction scope.
	phase1Failures := len(result.Failed)
	err := s.storage.WithinTransaction(ctx, func(ctx context.Context, txStore interfaces.TransactionStore) error {
		for _, p := range pending {
			tx := p.tx
			if tx.ID == "" {
				tx.ID = uuid.New().String()
			}
			// Bulk import may create POSTED rows directly.
			if tx.EntryStatus == "" {
				tx.EntryStatus = models.StatusDraft
			}
			tx.CreatedAt = now
			tx.UpdatedAt = now

			created, err := txStore.Create(ctx, tx)
			if err != nil {
				result.Failed = append(result.Failed, models.BulkRowError{Row: p.row, Errors: []string{err.Error()}})
				continue
			}
			result.Successful = append(result.Successful, created)
		}
		return nil
	})
	if err != nil {
		// Systemic abort: zero rows committed, whole call is a failure.
		s.logger.Error().Err(err).Int("rows", len(pending)).Msg("Bulk create transaction aborted")
		result.Successful = nil
		result.Failed = result.Failed[:phase1Failures]
		for _, p := range pending {
			result.Failed = append(result.Failed, models.BulkRowError{Row: p.row,
				Errors: []string{"storage transaction aborted: " + err.Error()}})
		}
		result.Status = models.BulkFailure
		return result, nil
	}

	switch {
	case len(result.Failed) == 0:
		result.Status = models.BulkSuccess
	case len(result.Successful) > 0:
		result.Status = models.BulkPartialSuccess
	default:
		result.Status = models.BulkFailure
	}

	s.logger.Info().
		Int("total", result.Total).
		Int("successful", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Str("status", string(result.Status)).
		Msg("Bulk create completed")

	return result, nil
}

// selectorFilter builds the permission-scoped filter for bulk post and bulk
// delete-drafts, restricted to DRAFT rows.
func (s *Service) selectorFilter(ctx context.Context, principal *models.Principal, sel interfaces.BulkSelector) (models.TransactionFilter, error) {
	scope, err := BuildScope(ctx, s.storage.Profiles(), principal)
	if err != nil {
		return models.TransactionFilter{}, err
	}
	filter := BuildFilter(scope, models.ListFilters{AccountID: sel.AccountID})
	draft := models.StatusDraft
	filter.Status = &draft
	filter.IDs = sel.TransactionIDs
	return filter, nil
}

// BulkPost transitions matching DRAFT rows to POSTED in one bulk update and
// returns the affected count. Business rules are not re-validated at
// transition time.
func (s *Service) BulkPost(ctx context.Context, principal *models.Principal, sel interfaces.BulkSelector) (int, error) {
	filter, err := s.selectorFilter(ctx, principal, sel)
	if err != nil {
		return 0, err
	}

	affected, err := s.storage.Transactions().UpdateStatus(ctx, filter, models.StatusPosted)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("affected", affected).Msg("Draft transactions posted")
	return affected, nil
}

// BulkDeleteDrafts removes matching DRAFT rows in one bulk delete and returns
// the affected count. POSTED rows are never touched.
func (s *Service) BulkDeleteDrafts(ctx context.Context, principal *models.Principal, sel interfaces.BulkSelector) (int, error) {
	filter, err := s.selectorFilter(ctx, principal, sel)
	if err != nil {
		return 0, err
	}

	affected, err := s.storage.Transactions().DeleteMatching(ctx, filter)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("affected", affected).Msg("Draft transactions deleted")
	return affected, nil
}

// BulkUpdateStatus sets the entry status on an explicit, permission-scoped id
// list. Empty id lists and invalid target statuses are rejected.
func (s *Service) BulkUpdateStatus(ctx context.Context, principal *models.Principal, ids []string, status models.EntryStatus) (int, error) {
	if principal == nil {
		return 0, &models.AuthenticationError{}
	}
	if len(ids) == 0 {
		return 0, &models.ValidationError{Violations: []string{"at least one transaction id is required"}}
	}
	if !models.ValidEntryStatus(status) {
		return 0, &models.ValidationError{Violations: []string{"entry_status must be DRAFT or POSTED"}}
	}

	scope, err := BuildScope(ctx, s.storage.Profiles(), principal)
	if err != nil {
		return 0, err
	}
	filter := models.TransactionFilter{Scope: scope, IDs: ids}

	affected, err := s.storage.Transactions().UpdateStatus(ctx, filter, status)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("affected", affected).Str("status", string(status)).Msg("Transaction status updated")
	return affected, nil
}
