package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is a pure function of the outstanding amount.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

// StatusFor derives the invoice status from outstanding vs total.
func StatusFor(total, outstanding decimal.Decimal) InvoiceStatus {
	switch {
	case outstanding.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusPaid
	case outstanding.LessThan(total):
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusUnpaid
	}
}

// Invoice is a billable obligation owed by a customer.
// Invariant: paid_amount + outstanding_amount == total.
type Invoice struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID        snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	AccountID         snowflake.ID    `gorm:"not null;index" json:"account_id"`
	Date              time.Time       `gorm:"not null;index" json:"date"`
	DueDate           time.Time       `gorm:"not null" json:"due_date"`
	Total             decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total"`
	PaidAmount        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"paid_amount"`
	OutstandingAmount decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"outstanding_amount"`
	Status            InvoiceStatus   `gorm:"type:text;not null" json:"status"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

type PaymentStatus string

const (
	PaymentStatusReceived  PaymentStatus = "received"
	PaymentStatusAllocated PaymentStatus = "allocated"
	PaymentStatusReversed  PaymentStatus = "reversed"
)

// Payment is money received from a counterparty, settled against invoices
// by allocation.
type Payment struct {
	ID               snowflake.ID                  `gorm:"primaryKey" json:"id"`
	Amount           decimal.Decimal               `gorm:"type:numeric(20,2);not null" json:"amount"`
	Date             time.Time                     `gorm:"not null" json:"date"`
	AccountID        snowflake.ID                  `gorm:"not null;index" json:"account_id"`
	CounterpartyKind ledgerdomain.CounterpartyKind `gorm:"type:text" json:"counterparty_kind,omitempty"`
	CounterpartyID   snowflake.ID                  `gorm:"default:0" json:"counterparty_id,omitempty"`
	Status           PaymentStatus                 `gorm:"type:text;not null" json:"status"`
	CreatedAt        time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Allocation links one payment to one invoice. Immutable once created;
// reversing a payment deletes its allocations and restores the invoices.
type Allocation struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	PaymentID       snowflake.ID    `gorm:"not null;index" json:"payment_id"`
	AllocatedAmount decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"allocated_amount"`
	AllocationDate  time.Time       `gorm:"not null" json:"allocation_date"`
	CreatedBy       string          `gorm:"type:text" json:"created_by"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Allocation) TableName() string { return "allocations" }

var (
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrPaymentNotFound  = errors.New("payment_not_found")
	ErrPaymentReversed  = errors.New("payment_reversed")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrOverAllocation   = errors.New("over_allocation")
	ErrNothingAllocated = errors.New("nothing_to_allocate")
)
