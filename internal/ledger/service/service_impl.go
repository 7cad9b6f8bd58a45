package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/ledger/domain"
	obsmetrics "github.com/harborline/ledger/internal/observability/metrics"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	AccountRepo accountdomain.Repository
	PartyRepo   partydomain.Repository
	Propagator  domain.Propagator
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	accountRepo accountdomain.Repository
	partyRepo   partydomain.Repository
	propagator  domain.Propagator
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("ledger.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		partyRepo:   p.PartyRepo,
		propagator:  p.Propagator,
		metrics:     p.Metrics,
	}
}

func (s *Service) Validate(ctx context.Context, req domain.PostVoucherRequest) domain.ValidationErrors {
	errs := domain.ValidateShape(req)

	seen := make(map[snowflake.ID]*accountdomain.Account)
	for i, line := range req.Lines {
		if line.AccountID == 0 {
			continue
		}
		account, ok := seen[line.AccountID]
		if !ok {
			found, err := s.accountRepo.FindByID(ctx, s.db, line.AccountID)
			if err != nil {
				errs = append(errs, domain.ValidationError{Line: i, Field: "account_id", Reason: fmt.Sprintf("lookup failed: %v", err)})
				continue
			}
			account = found
			seen[line.AccountID] = found
		}
		switch {
		case account == nil:
			errs = append(errs, domain.ValidationError{Line: i, Field: "account_id", Reason: "account does not exist"})
		case account.IsGroup:
			errs = append(errs, domain.ValidationError{Line: i, Field: "account_id", Reason: "cannot post to a group account"})
		case !account.IsActive:
			errs = append(errs, domain.ValidationError{Line: i, Field: "account_id", Reason: "account is inactive"})
		case account.Frozen:
			errs = append(errs, domain.ValidationError{Line: i, Field: "account_id", Reason: "account is frozen"})
		}

		if verr := s.validateCounterparty(ctx, i, line.Counterparty); verr != nil {
			errs = append(errs, *verr)
		}
	}

	return errs
}

func (s *Service) validateCounterparty(ctx context.Context, line int, cp domain.Counterparty) *domain.ValidationError {
	if cp.IsZero() || cp.ID == 0 {
		return nil
	}
	if cp.Kind == domain.CounterpartyAccount {
		account, err := s.accountRepo.FindByID(ctx, s.db, cp.ID)
		if err != nil {
			return &domain.ValidationError{Line: line, Field: "counterparty", Reason: fmt.Sprintf("lookup failed: %v", err)}
		}
		if account == nil {
			return &domain.ValidationError{Line: line, Field: "counterparty", Reason: "referenced account does not exist"}
		}
		return nil
	}
	kind, ok := cp.PartyKind()
	if !ok {
		return nil // unknown kinds already reported by ValidateShape
	}
	exists, err := s.partyRepo.Exists(ctx, s.db, kind, cp.ID)
	if err != nil {
		return &domain.ValidationError{Line: line, Field: "counterparty", Reason: fmt.Sprintf("lookup failed: %v", err)}
	}
	if !exists {
		return &domain.ValidationError{Line: line, Field: "counterparty", Reason: fmt.Sprintf("no %s with id %s", kind, cp.ID)}
	}
	return nil
}

func (s *Service) Post(ctx context.Context, req domain.PostVoucherRequest) ([]domain.GLEntry, error) {
	if errs := s.Validate(ctx, req); len(errs) > 0 {
		return nil, errs
	}

	existing, err := s.repo.FindByVoucher(ctx, s.db, req.VoucherType, req.VoucherNo)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, domain.ErrVoucherExists
	}

	now := time.Now().UTC()
	entries := make([]*domain.GLEntry, 0, len(req.Lines))
	for _, line := range req.Lines {
		rate := line.ExchangeRate
		if rate.IsZero() {
			rate = decimal.NewFromInt(1)
		}
		entries = append(entries, &domain.GLEntry{
			ID:               s.genID.Generate(),
			PostingDate:      line.PostingDate.UTC(),
			AccountID:        line.AccountID,
			Debit:            line.Debit,
			Credit:           line.Credit,
			VoucherType:      strings.TrimSpace(req.VoucherType),
			VoucherNo:        strings.TrimSpace(req.VoucherNo),
			CounterpartyKind: line.Counterparty.Kind,
			CounterpartyID:   line.Counterparty.ID,
			Currency:         strings.TrimSpace(req.Currency),
			ExchangeRate:     rate,
			CreatedBy:        req.CreatedBy,
			CreatedAt:        now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.InsertEntries(ctx, tx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.signalPropagation("voucher "+req.VoucherType+" "+req.VoucherNo+" posted", entries)
	if s.metrics != nil {
		s.metrics.RecordVoucherPosted(ctx, req.VoucherType)
	}
	s.log.Info("voucher posted",
		zap.String("voucher_type", req.VoucherType),
		zap.String("voucher_no", req.VoucherNo),
		zap.Int("lines", len(entries)),
	)

	out := make([]domain.GLEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out, nil
}

func (s *Service) Cancel(ctx context.Context, voucherType, voucherNo, actor string) ([]domain.GLEntry, error) {
	voucherType = strings.TrimSpace(voucherType)
	voucherNo = strings.TrimSpace(voucherNo)

	entries, err := s.repo.FindByVoucher(ctx, s.db, voucherType, voucherNo)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrVoucherNotFound
	}

	live := make([]*domain.GLEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsCancelled {
			live = append(live, entry)
		}
	}
	if len(live) == 0 {
		return nil, domain.ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	reversals := make([]*domain.GLEntry, 0, len(live))
	for _, orig := range live {
		reversals = append(reversals, &domain.GLEntry{
			ID:               s.genID.Generate(),
			PostingDate:      orig.PostingDate,
			AccountID:        orig.AccountID,
			Debit:            orig.Credit,
			Credit:           orig.Debit,
			VoucherType:      orig.VoucherType,
			VoucherNo:        orig.VoucherNo,
			CounterpartyKind: orig.CounterpartyKind,
			CounterpartyID:   orig.CounterpartyID,
			IsCancelled:      true,
			IsReversal:       true,
			Currency:         orig.Currency,
			ExchangeRate:     orig.ExchangeRate,
			CreatedBy:        actor,
			CreatedAt:        now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Check-and-set on the cancelled flag: a concurrent cancel that
		// already flagged the lines leaves nothing for us to touch.
		rows, err := s.repo.MarkCancelled(ctx, tx, voucherType, voucherNo)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrAlreadyCancelled
		}
		return s.repo.InsertEntries(ctx, tx, reversals)
	})
	if err != nil {
		return nil, err
	}

	s.signalPropagation("voucher "+voucherType+" "+voucherNo+" cancelled", live)
	if s.metrics != nil {
		s.metrics.RecordVoucherCancelled(ctx, voucherType)
	}
	s.log.Info("voucher cancelled",
		zap.String("voucher_type", voucherType),
		zap.String("voucher_no", voucherNo),
		zap.String("actor", actor),
	)

	out := make([]domain.GLEntry, len(reversals))
	for i, e := range reversals {
		out[i] = *e
	}
	return out, nil
}

func (s *Service) GetVoucher(ctx context.Context, voucherType, voucherNo string) ([]domain.GLEntry, error) {
	entries, err := s.repo.FindByVoucher(ctx, s.db, strings.TrimSpace(voucherType), strings.TrimSpace(voucherNo))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrVoucherNotFound
	}
	out := make([]domain.GLEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out, nil
}

func (s *Service) signalPropagation(reason string, entries []*domain.GLEntry) {
	if s.propagator == nil {
		return
	}
	seen := make(map[snowflake.ID]struct{}, len(entries))
	ids := make([]snowflake.ID, 0, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.AccountID]; dup {
			continue
		}
		seen[entry.AccountID] = struct{}{}
		ids = append(ids, entry.AccountID)
	}
	s.propagator.Enqueue(reason, ids...)
}
