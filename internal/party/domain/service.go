package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreatePartyRequest struct {
	Kind     PartyKind
	Name     string
	Email    string
	Currency string
}

type Service interface {
	Create(ctx context.Context, req CreatePartyRequest) (Party, error)
	GetByID(ctx context.Context, id snowflake.ID) (Party, error)
	// EnsureAccount creates the party's receivable/payable leaf account when
	// missing and links it. Called explicitly by Create; exposed so callers
	// can repair parties onboarded before the account groups existed.
	EnsureAccount(ctx context.Context, id snowflake.ID) (snowflake.ID, error)
}
