package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PartyKind distinguishes the counterparty tables a GL entry may reference.
type PartyKind string

const (
	KindCustomer PartyKind = "customer"
	KindSupplier PartyKind = "supplier"
	KindEmployee PartyKind = "employee"
)

func (k PartyKind) Valid() bool {
	switch k {
	case KindCustomer, KindSupplier, KindEmployee:
		return true
	default:
		return false
	}
}

// Party is a customer, supplier, or employee. Each party owns one leaf
// account in the chart of accounts, created explicitly on onboarding.
type Party struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Kind      PartyKind         `gorm:"type:text;not null;index" json:"kind"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Email     string            `gorm:"type:text" json:"email,omitempty"`
	Currency  string            `gorm:"type:text" json:"currency,omitempty"`
	AccountID snowflake.ID      `gorm:"index" json:"account_id"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Party) TableName() string { return "parties" }

var (
	ErrInvalidKind  = errors.New("invalid_party_kind")
	ErrInvalidName  = errors.New("invalid_party_name")
	ErrInvalidEmail = errors.New("invalid_party_email")
	ErrInvalidID    = errors.New("invalid_party_id")
	ErrNotFound     = errors.New("party_not_found")
)
