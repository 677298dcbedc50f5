package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// handleHealth responds to GET /api/health with {"status":"ok"}.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion responds to GET /api/version with version info.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// listFiltersFromQuery builds ListFilters from the request query string.
func listFiltersFromQuery(r *http.Request) models.ListFilters {
	q := r.URL.Query()
	filters := models.ListFilters{
		AccountID: q.Get("account_id"),
		StartDate: queryDate(r, "start_date"),
		EndDate:   queryDate(r, "end_date"),
	}
	if v := q.Get("type"); v != "" {
		t := models.TransactionType(strings.ToUpper(v))
		filters.Type = &t
	}
	if v := q.Get("status"); v != "" {
		st := models.EntryStatus(strings.ToUpper(v))
		filters.Status = &st
	}
	if v := q.Get("security_id"); v != "" {
		filters.SecurityID = &v
	}
	return filters
}

// handleList returns one permission-scoped page of transactions.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	result, err := s.app.Ledger.List(r.Context(), principal, listFiltersFromQuery(r),
		queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		writeDomainError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleCreate creates a single transaction. The duplicate check defaults to
// on and is advisory only.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var input models.Transaction
	if !DecodeJSON(w, r, &input) {
		return
	}

	opts := interfaces.CreateOptions{CheckDuplicates: s.app.Config.Ledger.CheckDuplicates}
	if v := r.URL.Query().Get("check_duplicates"); v != "" {
		opts.CheckDuplicates = v != "false" && v != "0"
	}

	result, err := s.app.Ledger.Create(r.Context(), principal, &input, opts)
	if err != nil {
		writeDomainError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// handleUpdate applies a partial update to a transaction.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var input interfaces.UpdateInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	updated, err := s.app.Ledger.Update(r.Context(), principal, chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

// handleDelete removes a DRAFT transaction.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := s.app.Ledger.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// bulkRequest is the envelope for POST /api/transactions/bulk.
type bulkRequest struct {
	Operation      string                `json:"operation"`
	Transactions   []*models.Transaction `json:"transactions,omitempty"`
	AccountID      string                `json:"account_id,omitempty"`
	TransactionIDs []string              `json:"transaction_ids,omitempty"`
	Status         models.EntryStatus    `json:"status,omitempty"`
}

// handleBulk dispatches the bulk operations: create, post, delete_drafts,
// update_status.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req bulkRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sel := interfaces.BulkSelector{AccountID: req.AccountID, TransactionIDs: req.TransactionIDs}

	switch req.Operation {
	case "create":
		result, err := s.app.Ledger.BulkCreate(r.Context(), principal, req.Transactions)
		if err != nil {
			writeDomainError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, result)

	case "post":
		affected, err := s.app.Ledger.BulkPost(r.Context(), principal, sel)
		if err != nil {
			writeDomainError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, models.BulkAffected{Affected: affected})

	case "delete_drafts":
		affected, err := s.app.Ledger.BulkDeleteDrafts(r.Context(), principal, sel)
		if err != nil {
			writeDomainError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, models.BulkAffected{Affected: affected})

	case "update_status":
		affected, err := s.app.Ledger.BulkUpdateStatus(r.Context(), principal, req.TransactionIDs, req.Status)
		if err != nil {
			writeDomainError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, models.BulkAffected{Affected: affected})

	default:
		WriteError(w, http.StatusBadRequest,
			"unknown bulk operation (expected create, post, delete_drafts, or update_status)")
	}
}

// balanceResponse carries the scoped cash balance.
type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// handleBalance reduces the principal's visible rows to a signed cash balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	balance, err := s.app.Ledger.CashBalance(r.Context(), principal, listFiltersFromQuery(r))
	if err != nil {
		writeDomainError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}
