package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	InsertInvoice(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// FindOpenInvoices returns a customer's unpaid and partially paid
	// invoices ordered oldest first, ties broken by id.
	FindOpenInvoices(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Invoice, error)
	UpdateInvoiceSettlement(ctx context.Context, db *gorm.DB, invoice *Invoice) error

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status PaymentStatus) error

	InsertAllocation(ctx context.Context, db *gorm.DB, allocation *Allocation) error
	FindAllocationsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*Allocation, error)
	SumAllocatedByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (decimal.Decimal, error)
	SumAllocatedByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (decimal.Decimal, error)
	DeleteAllocationsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error
}

type CreateInvoiceRequest struct {
	CustomerID snowflake.ID
	Date       time.Time
	DueDate    time.Time
	Total      decimal.Decimal
}

type CreatePaymentRequest struct {
	CustomerID snowflake.ID
	Amount     decimal.Decimal
	Date       time.Time
	AccountID  snowflake.ID
}

type AllocateRequest struct {
	PaymentID snowflake.ID
	InvoiceID snowflake.ID
	Amount    decimal.Decimal
	Actor     string
}

type Service interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (Payment, error)
	// AllocateFIFO walks the customer's open invoices oldest first,
	// consuming the payment's unallocated amount.
	AllocateFIFO(ctx context.Context, paymentID, customerID snowflake.ID, actor string) ([]Allocation, error)
	// Allocate applies an explicit amount to one invoice; any request that
	// would over-allocate either side is rejected before any write.
	Allocate(ctx context.Context, req AllocateRequest) (Allocation, error)
	// ReversePayment removes the payment's allocations and restores the
	// affected invoices' outstanding amounts and statuses.
	ReversePayment(ctx context.Context, paymentID snowflake.ID, actor string) error
	GetInvoice(ctx context.Context, id snowflake.ID) (Invoice, error)
}
