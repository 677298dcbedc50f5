// Package models defines the core domain types for the ledger engine.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a ledger transaction.
type TransactionType string

const (
	TxBuy             TransactionType = "BUY"
	TxSell            TransactionType = "SELL"
	TxDividend        TransactionType = "DIVIDEND"
	TxInterest        TransactionType = "INTEREST"
	TxFee             TransactionType = "FEE"
	TxTax             TransactionType = "TAX"
	TxTransferIn      TransactionType = "TRANSFER_IN"
	TxTransferOut     TransactionType = "TRANSFER_OUT"
	TxCorporateAction TransactionType = "CORPORATE_ACTION"
	TxSplit           TransactionType = "SPLIT"
	TxMerger          TransactionType = "MERGER"
	TxSpinoff         TransactionType = "SPINOFF"
)

// validTransactionTypes lists all accepted transaction types.
var validTransactionTypes = map[TransactionType]bool{
	TxBuy:             true,
	TxSell:            true,
	TxDividend:        true,
	TxInterest:        true,
	TxFee:             true,
	TxTax:             true,
	TxTransferIn:      true,
	TxTransferOut:     true,
	TxCorporateAction: true,
	TxSplit:           true,
	TxMerger:          true,
	TxSpinoff:         true,
}

// ValidTransactionType returns true if t is a recognized transaction type.
func ValidTransactionType(t TransactionType) bool {
	return validTransactionTypes[t]
}

// RequiresSecurity returns true for transaction types tied to a security.
func (t TransactionType) RequiresSecurity() bool {
	switch t {
	case TxBuy, TxSell, TxDividend, TxCorporateAction, TxSplit, TxMerger, TxSpinoff:
		return true
	default:
		return false
	}
}

// RequiresQuantity returns true for transaction types that move units of a security.
func (t TransactionType) RequiresQuantity() bool {
	switch t {
	case TxBuy, TxSell, TxSplit, TxMerger, TxSpinoff:
		return true
	default:
		return false
	}
}

// RequiresPrice returns true for trade types that must carry a unit price.
func (t TransactionType) RequiresPrice() bool {
	return t == TxBuy || t == TxSell
}

// EntryStatus is the lifecycle state of a ledger row.
// POSTED is the durable, audit-stable state; only DRAFT rows may be deleted.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "DRAFT"
	StatusPosted EntryStatus = "POSTED"
)

// ValidEntryStatus returns true if s is DRAFT or POSTED.
func ValidEntryStatus(s EntryStatus) bool {
	return s == StatusDraft || s == StatusPosted
}

// Transaction is one financial event tied to exactly one account reference
// (master or client, never both) and a client profile.
type Transaction struct {
	ID              string           `json:"id"`
	TransactionDate time.Time        `json:"transaction_date"`
	TradeDate       *time.Time       `json:"trade_date,omitempty"`
	SettlementDate  *time.Time       `json:"settlement_date,omitempty"`
	Type            TransactionType  `json:"transaction_type"`
	SecurityID      *string          `json:"security_id,omitempty"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Fee             *decimal.Decimal `json:"fee,omitempty"`
	Tax             *decimal.Decimal `json:"tax,omitempty"`
	Description     string           `json:"description,omitempty"`
	Reference       string           `json:"reference,omitempty"`
	EntryStatus     EntryStatus      `json:"entry_status"`
	MasterAccountID *string          `json:"master_account_id,omitempty"`
	ClientAccountID *string          `json:"client_account_id,omitempty"`
	ClientProfileID string           `json:"client_profile_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.TradeDate = cloneTime(t.TradeDate)
	c.SettlementDate = cloneTime(t.SettlementDate)
	c.SecurityID = cloneString(t.SecurityID)
	c.Quantity = cloneDecimal(t.Quantity)
	c.Price = cloneDecimal(t.Price)
	c.Amount = cloneDecimal(t.Amount)
	c.Fee = cloneDecimal(t.Fee)
	c.Tax = cloneDecimal(t.Tax)
	c.MasterAccountID = cloneString(t.MasterAccountID)
	c.ClientAccountID = cloneString(t.ClientAccountID)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// NaturalKey is the business-meaning tuple used for duplicate detection,
// independent of the storage-assigned id.
type NaturalKey struct {
	MasterAccountID *string
	ClientAccountID *string
	TransactionDate time.Time
	Type            TransactionType
	SecurityID      *string
	Amount          decimal.Decimal
}

// NaturalKey builds the duplicate-detection key for the transaction.
// Amount must already be calculated; a nil amount yields a zero amount key.
func (t *Transaction) NaturalKey() NaturalKey {
	key := NaturalKey{
		MasterAccountID: cloneString(t.MasterAccountID),
		ClientAccountID: cloneString(t.ClientAccountID),
		TransactionDate: t.TransactionDate,
		Type:            t.Type,
		SecurityID:      cloneString(t.SecurityID),
	}
	if t.Amount != nil {
		key.Amount = *t.Amount
	}
	return key
}

// Account reference prefixes used by the account_id request filter.
const (
	MasterAccountPrefix = "master_"
	ClientAccountPrefix = "client_"
)

// SplitAccountRef decomposes a type-tagged account reference into the matching
// exclusive field. Unrecognized prefixes yield (nil, nil) without error.
func SplitAccountRef(accountID string) (masterID, clientID *string) {
	switch {
	case strings.HasPrefix(accountID, MasterAccountPrefix):
		id := strings.TrimPrefix(accountID, MasterAccountPrefix)
		return &id, nil
	case strings.HasPrefix(accountID, ClientAccountPrefix):
		id := strings.TrimPrefix(accountID, ClientAccountPrefix)
		return nil, &id
	default:
		return nil, nil
	}
}
