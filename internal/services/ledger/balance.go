package ledger

import (
	"github.com/meridianwealth/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// outflowTypes subtract their amount from the cash balance. Inflow types
// (SELL, DIVIDEND, INTEREST, TRANSFER_IN) add it, and any other type falls
// back to adding the amount with its own sign.
var outflowTypes = map[models.TransactionType]bool{
	models.TxBuy:         true,
	models.TxFee:         true,
	models.TxTax:         true,
	models.TxTransferOut: true,
}

// CashBalance reduces a transaction list to a signed balance. The reduction is
// a commutative sum — order of the input list never changes the result. Nil
// amounts contribute zero.
func CashBalance(rows []*models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, row := range rows {
		if row == nil || row.Amount == nil {
			continue
		}
		if outflowTypes[row.Type] {
			balance = balance.Sub(*row.Amount)
		} else {
			balance = balance.Add(*row.Amount)
		}
	}
	return balance
}
