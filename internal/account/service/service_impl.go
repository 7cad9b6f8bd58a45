package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborline/ledger/internal/account/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.Account{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Account{}, domain.ErrInvalidName
	}
	if !req.Type.Valid() {
		return domain.Account{}, domain.ErrInvalidType
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.Account{}, err
	}
	if existing != nil {
		return domain.Account{}, domain.ErrCodeTaken
	}

	level := 1
	currency := strings.TrimSpace(req.Currency)
	if req.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, s.db, *req.ParentID)
		if err != nil {
			return domain.Account{}, err
		}
		if parent == nil {
			return domain.Account{}, domain.ErrParentNotFound
		}
		if !parent.IsGroup {
			return domain.Account{}, domain.ErrParentNotGroup
		}
		level = parent.Level + 1
		if currency == "" {
			currency = parent.Currency
		}
	}
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Type:      req.Type,
		IsGroup:   req.IsGroup,
		ParentID:  req.ParentID,
		Level:     level,
		Balance:   decimal.Zero,
		Currency:  currency,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &account); err != nil {
		return domain.Account{}, err
	}

	s.log.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
		zap.Bool("is_group", account.IsGroup),
	)
	return account, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Account, error) {
	if id == 0 {
		return domain.Account{}, domain.ErrInvalidID
	}
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *account, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.Account, error) {
	account, err := s.repo.FindByCode(ctx, s.db, strings.TrimSpace(code))
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *account, nil
}

func (s *Service) GetBalance(ctx context.Context, id snowflake.ID) (decimal.Decimal, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *Service) SetFrozen(ctx context.Context, id snowflake.ID, frozen bool) error {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateFlags(ctx, s.db, account.ID, account.IsActive, frozen)
}

func (s *Service) SetActive(ctx context.Context, id snowflake.ID, active bool) error {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateFlags(ctx, s.db, account.ID, active, account.Frozen)
}

func (s *Service) ListChildren(ctx context.Context, id snowflake.ID) ([]domain.Account, error) {
	parent, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByParent(ctx, s.db, parent.ID)
	if err != nil {
		return nil, err
	}
	children := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		children = append(children, *row)
	}
	return children, nil
}

func (s *Service) LoadTree(ctx context.Context) (*domain.Tree, error) {
	accounts, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(accounts)
}
