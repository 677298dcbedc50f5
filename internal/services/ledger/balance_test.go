package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianwealth/ledger/internal/models"
)

func row(txType models.TransactionType, amount float64) *models.Transaction {
	return &models.Transaction{Type: txType, Amount: decPtr(amount)}
}

func TestCashBalanceSigns(t *testing.T) {
	rows := []*models.Transaction{
		row(models.TxTransferIn, 1000),
		row(models.TxBuy, 400),
		row(models.TxSell, 150),
		row(models.TxDividend, 25),
		row(models.TxFee, 10),
		row(models.TxTax, 5),
		row(models.TxTransferOut, 100),
		row(models.TxInterest, 2.5),
	}

	// 1000 - 400 + 150 + 25 - 10 - 5 - 100 + 2.5
	assert.Equal(t, "662.50", CashBalance(rows).StringFixed(2))
}

func TestCashBalanceOrderIndependent(t *testing.T) {
	rows := []*models.Transaction{
		row(models.TxTransferIn, 500),
		row(models.TxBuy, 200),
		row(models.TxFee, 7.5),
	}
	reversed := []*models.Transaction{rows[2], rows[1], rows[0]}

	assert.True(t, CashBalance(rows).Equal(CashBalance(reversed)))
}

func TestCashBalanceNegativeAmounts(t *testing.T) {
	// A negative outflow amount adds to the balance; signs are raw, not absolute.
	rows := []*models.Transaction{row(models.TxBuy, -100)}
	assert.Equal(t, "100", CashBalance(rows).String())
}

func TestCashBalanceSkipsNilAmounts(t *testing.T) {
	rows := []*models.Transaction{
		{Type: models.TxDividend},
		nil,
		row(models.TxSell, 10),
	}
	assert.Equal(t, "10", CashBalance(rows).String())
}

func TestCashBalanceEmpty(t *testing.T) {
	assert.True(t, CashBalance(nil).IsZero())
}
