package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, party *Party) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Party, error)
	Exists(ctx context.Context, db *gorm.DB, kind PartyKind, id snowflake.ID) (bool, error)
	SetAccount(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID) error
}
