package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEntries(ctx context.Context, db *gorm.DB, entries []*GLEntry) error
	FindByVoucher(ctx context.Context, db *gorm.DB, voucherType, voucherNo string) ([]*GLEntry, error)
	// MarkCancelled flags all live lines of a voucher and returns how many
	// rows it touched; zero means another cancel won the race.
	MarkCancelled(ctx context.Context, db *gorm.DB, voucherType, voucherNo string) (int64, error)
	// SumByAccount totals debit and credit over non-cancelled entries.
	SumByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (debit, credit decimal.Decimal, err error)
}
