package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	Code     string
	Name     string
	Type     AccountType
	IsGroup  bool
	ParentID *snowflake.ID
	Currency string
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	GetByID(ctx context.Context, id snowflake.ID) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	GetBalance(ctx context.Context, id snowflake.ID) (decimal.Decimal, error)
	SetFrozen(ctx context.Context, id snowflake.ID, frozen bool) error
	SetActive(ctx context.Context, id snowflake.ID, active bool) error
	ListChildren(ctx context.Context, id snowflake.ID) ([]Account, error)
	LoadTree(ctx context.Context) (*Tree, error)
}
