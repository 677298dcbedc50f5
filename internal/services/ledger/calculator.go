package ledger

import (
	"github.com/meridianwealth/ledger/internal/models"
)

// settlementDays is the standard T+2 settlement window for trades.
const settlementDays = 2

// CalculateFields derives missing fields without overwriting caller-supplied
// values: amount = round(quantity x price, 2) for trade types, trade date from
// transaction date, and settlement date from the trade date via the calendar.
// Applying it twice equals applying it once.
func CalculateFields(tx *models.Transaction, calendar SettlementCalendar) *models.Transaction {
	out := tx.Clone()

	if out.Amount == nil && out.Type.RequiresPrice() && out.Quantity != nil && out.Price != nil {
		amount := out.Quantity.Mul(*out.Price).Round(2)
		out.Amount = &amount
	}

	if out.TradeDate == nil && !out.TransactionDate.IsZero() {
		tradeDate := out.TransactionDate
		out.TradeDate = &tradeDate
	}

	if out.SettlementDate == nil && out.Type.RequiresPrice() && out.TradeDate != nil {
		settlement := calendar(*out.TradeDate, settlementDays)
		out.SettlementDate = &settlement
	}

	return out
}
