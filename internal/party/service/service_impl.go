package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/party/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	AccountSvc accountdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	accountSvc accountdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("party.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		accountSvc: p.AccountSvc,
	}
}

// Create inserts the party row, then explicitly provisions its ledger
// account. The account side effect is a visible service call rather than a
// persistence hook so it stays orderable and testable.
func (s *Service) Create(ctx context.Context, req domain.CreatePartyRequest) (domain.Party, error) {
	if !req.Kind.Valid() {
		return domain.Party{}, domain.ErrInvalidKind
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Party{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Party{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	party := domain.Party{
		ID:        s.genID.Generate(),
		Kind:      req.Kind,
		Name:      name,
		Email:     email,
		Currency:  strings.TrimSpace(req.Currency),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &party); err != nil {
		return domain.Party{}, err
	}

	accountID, err := s.EnsureAccount(ctx, party.ID)
	if err != nil {
		return domain.Party{}, err
	}
	party.AccountID = accountID

	s.log.Info("party created",
		zap.String("party_id", party.ID.String()),
		zap.String("kind", string(party.Kind)),
		zap.String("account_id", accountID.String()),
	)
	return party, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Party, error) {
	if id == 0 {
		return domain.Party{}, domain.ErrInvalidID
	}
	party, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Party{}, err
	}
	if party == nil {
		return domain.Party{}, domain.ErrNotFound
	}
	return *party, nil
}

func (s *Service) EnsureAccount(ctx context.Context, id snowflake.ID) (snowflake.ID, error) {
	party, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if party.AccountID != 0 {
		return party.AccountID, nil
	}

	groupCode := accountdomain.CodeAccountsPayable
	accountType := accountdomain.TypeLiability
	if party.Kind == domain.KindCustomer {
		groupCode = accountdomain.CodeAccountsReceivable
		accountType = accountdomain.TypeAsset
	}

	group, err := s.accountSvc.GetByCode(ctx, groupCode)
	if err != nil {
		return 0, fmt.Errorf("load %s group: %w", groupCode, err)
	}

	account, err := s.accountSvc.Create(ctx, accountdomain.CreateAccountRequest{
		Code:     fmt.Sprintf("%s-%s", group.Code, party.ID),
		Name:     party.Name,
		Type:     accountType,
		ParentID: &group.ID,
		Currency: party.Currency,
	})
	if err != nil {
		return 0, err
	}

	if err := s.repo.SetAccount(ctx, s.db, party.ID, account.ID); err != nil {
		return 0, err
	}
	return account.ID, nil
}
