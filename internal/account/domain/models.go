package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

// DebitNormal reports whether the account type increases on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == TypeAsset || t == TypeExpense
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	default:
		return false
	}
}

// Account is a node in the chart of accounts. Group accounts aggregate their
// children and never receive postings; leaf accounts hold real balances.
type Account struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"type:text;not null;uniqueIndex:ux_accounts_code" json:"code"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Type      AccountType     `gorm:"type:text;not null" json:"type"`
	IsGroup   bool            `gorm:"not null;default:false" json:"is_group"`
	ParentID  *snowflake.ID   `gorm:"index" json:"parent_id,omitempty"`
	Level     int             `gorm:"not null" json:"level"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"type:text;not null" json:"currency"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	Frozen    bool            `gorm:"not null;default:false" json:"frozen"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Postable reports whether the account may receive GL entries.
func (a *Account) Postable() bool {
	return !a.IsGroup && a.IsActive && !a.Frozen
}

// Well-known chart codes the engine itself depends on. Party onboarding
// creates leaf accounts under these groups.
const (
	CodeAccountsReceivable = "1200"
	CodeAccountsPayable    = "2110"
)

var (
	ErrNotFound       = errors.New("account_not_found")
	ErrInvalidID      = errors.New("invalid_account_id")
	ErrInvalidCode    = errors.New("invalid_account_code")
	ErrInvalidName    = errors.New("invalid_account_name")
	ErrInvalidType    = errors.New("invalid_account_type")
	ErrCodeTaken      = errors.New("account_code_taken")
	ErrParentNotGroup = errors.New("parent_account_not_group")
	ErrParentNotFound = errors.New("parent_account_not_found")
)
