package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/settlement/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertInvoice(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, customer_id, account_id, date, due_date, total,
			paid_amount, outstanding_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.CustomerID,
		invoice.AccountID,
		invoice.Date,
		invoice.DueDate,
		invoice.Total,
		invoice.PaidAmount,
		invoice.OutstandingAmount,
		string(invoice.Status),
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindInvoiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindOpenInvoices(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("customer_id = ? AND outstanding_amount > 0", customerID).
		Order("date asc, id asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) UpdateInvoiceSettlement(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET paid_amount = ?, outstanding_amount = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.PaidAmount,
		invoice.OutstandingAmount,
		string(invoice.Status),
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, amount, date, account_id, counterparty_kind, counterparty_id,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.Amount,
		payment.Date,
		payment.AccountID,
		string(payment.CounterpartyKind),
		payment.CounterpartyID,
		string(payment.Status),
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ?", id).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.PaymentStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status),
		id,
	).Error
}

func (r *repo) InsertAllocation(ctx context.Context, db *gorm.DB, allocation *domain.Allocation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO allocations (
			id, invoice_id, payment_id, allocated_amount, allocation_date, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		allocation.ID,
		allocation.InvoiceID,
		allocation.PaymentID,
		allocation.AllocatedAmount,
		allocation.AllocationDate,
		allocation.CreatedBy,
		allocation.CreatedAt,
	).Error
}

func (r *repo) FindAllocationsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*domain.Allocation, error) {
	var allocations []*domain.Allocation
	err := db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("payment_id = ?", paymentID).
		Order("created_at asc, id asc").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) SumAllocatedByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (decimal.Decimal, error) {
	return r.sumAllocated(ctx, db, "payment_id", paymentID)
}

func (r *repo) SumAllocatedByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (decimal.Decimal, error) {
	return r.sumAllocated(ctx, db, "invoice_id", invoiceID)
}

func (r *repo) sumAllocated(ctx context.Context, db *gorm.DB, column string, id snowflake.ID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(allocated_amount), 0) AS total FROM allocations WHERE `+column+` = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repo) DeleteAllocationsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM allocations WHERE payment_id = ?`,
		paymentID,
	).Error
}
