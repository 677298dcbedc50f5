package models

import "time"

// ListFilters are the caller-supplied narrowing filters for transaction queries.
// AccountID carries a type-tag prefix ("master_"/"client_"); unrecognized
// prefixes are ignored without error.
type ListFilters struct {
	AccountID  string           `json:"account_id,omitempty"`
	StartDate  *time.Time       `json:"start_date,omitempty"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	Type       *TransactionType `json:"transaction_type,omitempty"`
	Status     *EntryStatus     `json:"entry_status,omitempty"`
	SecurityID *string          `json:"security_id,omitempty"`
}

// TransactionFilter is the composed repository predicate: permission scope
// plus optional narrowing filters. Date bounds are inclusive; EndDate is
// already normalized to end-of-day by the scope builder.
type TransactionFilter struct {
	Scope           Scope
	MasterAccountID *string
	ClientAccountID *string
	StartDate       *time.Time
	EndDate         *time.Time
	Type            *TransactionType
	Status          *EntryStatus
	SecurityID      *string
	IDs             []string
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResult is one permission-scoped page of ledger rows.
type ListResult struct {
	Rows       []*Transaction `json:"rows"`
	Pagination Pagination     `json:"pagination"`
}

// DuplicateCheck is the advisory result of a natural-key lookup. Recovered is
// set when the lookup itself failed and the check fell back to "not a duplicate";
// the fallback is policy, not an error, and is never surfaced to the caller.
type DuplicateCheck struct {
	IsDuplicate bool         `json:"is_duplicate"`
	Recovered   bool         `json:"-"`
	Message     string       `json:"message,omitempty"`
	Existing    *Transaction `json:"existing_transaction,omitempty"`
}

// CreateResult pairs a created row with its duplicate advisory (if checked).
type CreateResult struct {
	Created           *Transaction    `json:"created"`
	DuplicateAdvisory *DuplicateCheck `json:"duplicate_advisory,omitempty"`
}

// BulkStatus classifies a bulk-create outcome.
type BulkStatus string

const (
	BulkSuccess        BulkStatus = "success"
	BulkPartialSuccess BulkStatus = "partial_success"
	BulkFailure        BulkStatus = "failure"
)

// BulkRowError records the violations for one failed bulk row, keyed by
// 1-based row number.
type BulkRowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// BulkCreateResult is the structured partial-failure report for bulk create.
type BulkCreateResult struct {
	Status     BulkStatus     `json:"status"`
	Total      int            `json:"total"`
	Successful []*Transaction `json:"successful"`
	Failed     []BulkRowError `json:"failed"`
}

// BulkAffected reports the row count touched by bulk post, delete-drafts,
// and update-status operations.
type BulkAffected struct {
	Affected int `json:"affected"`
}
