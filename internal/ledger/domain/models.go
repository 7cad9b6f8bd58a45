package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	"github.com/shopspring/decimal"
)

// Tolerance is the equality tolerance for voucher balancing and balance
// comparison, fixed at one cent regardless of currency.
var Tolerance = decimal.New(1, -2)

// CounterpartyKind tags which table a counterparty reference points at.
type CounterpartyKind string

const (
	CounterpartyCustomer CounterpartyKind = "customer"
	CounterpartySupplier CounterpartyKind = "supplier"
	CounterpartyEmployee CounterpartyKind = "employee"
	CounterpartyAccount  CounterpartyKind = "account"
)

// Counterparty is a tagged reference to a customer, supplier, employee, or
// raw account. The zero value means no counterparty.
type Counterparty struct {
	Kind CounterpartyKind `json:"kind,omitempty"`
	ID   snowflake.ID     `json:"id,omitempty"`
}

func (c Counterparty) IsZero() bool {
	return c.Kind == "" && c.ID == 0
}

// PartyKind maps the tag onto the party table's kind, or false for the
// account variant.
func (c Counterparty) PartyKind() (partydomain.PartyKind, bool) {
	switch c.Kind {
	case CounterpartyCustomer:
		return partydomain.KindCustomer, true
	case CounterpartySupplier:
		return partydomain.KindSupplier, true
	case CounterpartyEmployee:
		return partydomain.KindEmployee, true
	default:
		return "", false
	}
}

// GLEntry is one posted line of a voucher. Entries are append-only;
// cancellation flags originals and appends mirrored reversal lines.
type GLEntry struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	PostingDate      time.Time        `gorm:"not null;index" json:"posting_date"`
	AccountID        snowflake.ID     `gorm:"not null;index" json:"account_id"`
	Debit            decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"debit"`
	Credit           decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"credit"`
	VoucherType      string           `gorm:"type:text;not null;index:ix_gl_entries_voucher,priority:1" json:"voucher_type"`
	VoucherNo        string           `gorm:"type:text;not null;index:ix_gl_entries_voucher,priority:2" json:"voucher_no"`
	CounterpartyKind CounterpartyKind `gorm:"type:text" json:"counterparty_kind,omitempty"`
	CounterpartyID   snowflake.ID     `gorm:"default:0" json:"counterparty_id,omitempty"`
	IsCancelled      bool             `gorm:"not null;default:false" json:"is_cancelled"`
	IsReversal       bool             `gorm:"not null;default:false" json:"is_reversal"`
	Currency         string           `gorm:"type:text;not null" json:"currency"`
	ExchangeRate     decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:1" json:"exchange_rate"`
	CreatedBy        string           `gorm:"type:text" json:"created_by"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (GLEntry) TableName() string { return "gl_entries" }

// Counterparty rebuilds the tagged reference from the stored columns.
func (e *GLEntry) Counterparty() Counterparty {
	return Counterparty{Kind: e.CounterpartyKind, ID: e.CounterpartyID}
}

var (
	ErrVoucherNotFound  = errors.New("voucher_not_found")
	ErrVoucherExists    = errors.New("voucher_no_taken")
	ErrAlreadyCancelled = errors.New("voucher_already_cancelled")
)
