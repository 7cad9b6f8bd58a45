package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/account/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, code, name, type, is_group, parent_id, level, balance, currency, is_active, frozen, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Code,
		account.Name,
		string(account.Type),
		account.IsGroup,
		account.ParentID,
		account.Level,
		account.Balance,
		account.Currency,
		account.IsActive,
		account.Frozen,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, is_group, parent_id, level, balance, currency, is_active, frozen, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, is_group, parent_id, level, balance, currency, is_active, frozen, created_at, updated_at
		 FROM accounts WHERE code = ?`,
		code,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Order("level asc, code asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) FindByParent(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("parent_id = ?", parentID).
		Order("code asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, balance decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateFlags(ctx context.Context, db *gorm.DB, id snowflake.ID, isActive, frozen bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET is_active = ?, frozen = ?, updated_at = ? WHERE id = ?`,
		isActive,
		frozen,
		time.Now().UTC(),
		id,
	).Error
}
