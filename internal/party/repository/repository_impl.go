package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/party/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, party *domain.Party) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO parties (id, kind, name, email, currency, account_id, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		party.ID,
		string(party.Kind),
		party.Name,
		party.Email,
		party.Currency,
		party.AccountID,
		party.Metadata,
		party.CreatedAt,
		party.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Party, error) {
	var party domain.Party
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, name, email, currency, account_id, metadata, created_at, updated_at
		 FROM parties WHERE id = ?`,
		id,
	).Scan(&party).Error
	if err != nil {
		return nil, err
	}
	if party.ID == 0 {
		return nil, nil
	}
	return &party, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, kind domain.PartyKind, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM parties WHERE id = ? AND kind = ?`,
		id,
		string(kind),
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) SetAccount(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE parties SET account_id = ?, updated_at = ? WHERE id = ?`,
		accountID,
		time.Now().UTC(),
		id,
	).Error
}
