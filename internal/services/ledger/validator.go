package ledger

import (
	"fmt"
	"time"

	"github.com/meridianwealth/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// amountTolerance is the permitted drift between amount and quantity x price.
var amountTolerance = decimal.NewFromFloat(0.01)

// Validate runs every invariant check against a fully calculated transaction
// and returns the ordered list of violations. Checks never short-circuit so
// the caller always sees the complete picture. now anchors the future-date check.
func Validate(tx *models.Transaction, now time.Time) []string {
	var violations []string

	if tx.TransactionDate.IsZero() {
		violations = append(violations, "transaction_date is required")
	}

	if tx.Type == "" {
		violations = append(violations, "transaction_type is required")
	} else if !models.ValidTransactionType(tx.Type) {
		violations = append(violations, fmt.Sprintf("transaction_type %q is not recognized", tx.Type))
	}

	if tx.Amount == nil {
		violations = append(violations, "amount is required")
	}

	hasMaster := tx.MasterAccountID != nil && *tx.MasterAccountID != ""
	hasClient := tx.ClientAccountID != nil && *tx.ClientAccountID != ""
	switch {
	case hasMaster && hasClient:
		violations = append(violations, "master_account_id and client_account_id are mutually exclusive")
	case !hasMaster && !hasClient:
		violations = append(violations, "either master_account_id or client_account_id is required")
	}

	if tx.ClientProfileID == "" {
		violations = append(violations, "client_profile_id is required")
	}

	if tx.EntryStatus != "" && !models.ValidEntryStatus(tx.EntryStatus) {
		violations = append(violations, "entry_status must be DRAFT or POSTED")
	}

	if tx.Type.RequiresSecurity() && (tx.SecurityID == nil || *tx.SecurityID == "") {
		violations = append(violations, fmt.Sprintf("security_id is required for %s transactions", tx.Type))
	}

	if tx.Type.RequiresQuantity() && tx.Quantity == nil {
		violations = append(violations, fmt.Sprintf("quantity is required for %s transactions", tx.Type))
	}

	if tx.Type.RequiresPrice() && tx.Price == nil {
		violations = append(violations, fmt.Sprintf("price is required for %s transactions", tx.Type))
	}

	if tx.Type.RequiresPrice() && tx.Amount != nil && tx.Quantity != nil && tx.Price != nil {
		expected := tx.Quantity.Mul(*tx.Price)
		if tx.Amount.Sub(expected).Abs().GreaterThan(amountTolerance) {
			violations = append(violations, fmt.Sprintf(
				"amount %s does not match quantity x price %s (tolerance 0.01)",
				tx.Amount.StringFixed(2), expected.StringFixed(2)))
		}
	}

	if !tx.TransactionDate.IsZero() && tx.TransactionDate.After(EndOfDay(now)) {
		violations = append(violations, "transaction_date cannot be in the future")
	}

	if tx.TradeDate != nil && tx.SettlementDate != nil && tx.TradeDate.After(*tx.SettlementDate) {
		violations = append(violations, "trade_date cannot be after settlement_date")
	}

	return violations
}

// EndOfDay normalizes t to the last nanosecond of its calendar day, so an
// inclusive same-day range covers the whole day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
