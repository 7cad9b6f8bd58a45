package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Account, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*Account, error)
	FindByParent(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]*Account, error)
	UpdateBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, balance decimal.Decimal) error
	UpdateFlags(ctx context.Context, db *gorm.DB, id snowflake.ID, isActive, frozen bool) error
}
