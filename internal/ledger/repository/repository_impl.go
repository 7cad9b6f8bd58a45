package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEntries(ctx context.Context, db *gorm.DB, entries []*domain.GLEntry) error {
	for _, entry := range entries {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO gl_entries (
				id, posting_date, account_id, debit, credit, voucher_type, voucher_no,
				counterparty_kind, counterparty_id, is_cancelled, is_reversal,
				currency, exchange_rate, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			entry.PostingDate,
			entry.AccountID,
			entry.Debit,
			entry.Credit,
			entry.VoucherType,
			entry.VoucherNo,
			string(entry.CounterpartyKind),
			entry.CounterpartyID,
			entry.IsCancelled,
			entry.IsReversal,
			entry.Currency,
			entry.ExchangeRate,
			entry.CreatedBy,
			entry.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByVoucher(ctx context.Context, db *gorm.DB, voucherType, voucherNo string) ([]*domain.GLEntry, error) {
	var entries []*domain.GLEntry
	err := db.WithContext(ctx).
		Model(&domain.GLEntry{}).
		Where("voucher_type = ? AND voucher_no = ?", voucherType, voucherNo).
		Order("created_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) MarkCancelled(ctx context.Context, db *gorm.DB, voucherType, voucherNo string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE gl_entries SET is_cancelled = ?
		 WHERE voucher_type = ? AND voucher_no = ? AND is_cancelled = ?`,
		true,
		voucherType,
		voucherNo,
		false,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) SumByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		SumDebit  decimal.Decimal
		SumCredit decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(debit), 0) AS sum_debit, COALESCE(SUM(credit), 0) AS sum_credit
		 FROM gl_entries WHERE account_id = ? AND is_cancelled = ?`,
		accountID,
		false,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.SumDebit, row.SumCredit, nil
}
