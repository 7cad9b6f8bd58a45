package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/clock"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	obsmetrics "github.com/harborline/ledger/internal/observability/metrics"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	"github.com/harborline/ledger/internal/settlement/domain"
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
	Clock       clock.Clock
	Repo        domain.Repository
	PartyRepo   partydomain.Repository
	AccountRepo accountdomain.Repository
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	partyRepo   partydomain.Repository
	accountRepo accountdomain.Repository
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settlement.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		partyRepo:   p.PartyRepo,
		accountRepo: p.AccountRepo,
		metrics:     p.Metrics,
	}
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if req.Total.LessThanOrEqual(decimal.Zero) {
		return domain.Invoice{}, domain.ErrInvalidAmount
	}
	customer, err := s.customer(ctx, req.CustomerID)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = date.AddDate(0, 0, 30)
	}

	invoice := domain.Invoice{
		ID:                s.genID.Generate(),
		CustomerID:        customer.ID,
		AccountID:         customer.AccountID,
		Date:              date.UTC(),
		DueDate:           dueDate.UTC(),
		Total:             req.Total,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: req.Total,
		Status:            domain.InvoiceStatusUnpaid,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.InsertInvoice(ctx, s.db, &invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("total", invoice.Total.StringFixed(2)),
	)
	return invoice, nil
}

func (s *Service) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (domain.Payment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	customer, err := s.customer(ctx, req.CustomerID)
	if err != nil {
		return domain.Payment{}, err
	}
	if req.AccountID != 0 {
		account, err := s.accountRepo.FindByID(ctx, s.db, req.AccountID)
		if err != nil {
			return domain.Payment{}, err
		}
		if account == nil || !account.Postable() {
			return domain.Payment{}, accountdomain.ErrNotFound
		}
	}

	now := s.clock.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}
	payment := domain.Payment{
		ID:               s.genID.Generate(),
		Amount:           req.Amount,
		Date:             date.UTC(),
		AccountID:        req.AccountID,
		CounterpartyKind: ledgerdomain.CounterpartyCustomer,
		CounterpartyID:   customer.ID,
		Status:           domain.PaymentStatusReceived,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.InsertPayment(ctx, s.db, &payment); err != nil {
		return domain.Payment{}, err
	}

	s.log.Info("payment received",
		zap.String("payment_id", payment.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return payment, nil
}

// AllocateFIFO consumes the payment's unallocated amount against the
// customer's open invoices oldest first. Each step takes
// min(remaining, invoice outstanding), so the walk can never over-allocate
// either side.
func (s *Service) AllocateFIFO(ctx context.Context, paymentID, customerID snowflake.ID, actor string) ([]domain.Allocation, error) {
	var created []domain.Allocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, remaining, err := s.paymentRemaining(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.CounterpartyID != 0 && payment.CounterpartyID != customerID {
			return domain.ErrInvalidCustomer
		}
		if remaining.LessThanOrEqual(decimal.Zero) {
			return domain.ErrNothingAllocated
		}

		invoices, err := s.repo.FindOpenInvoices(ctx, tx, customerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for _, invoice := range invoices {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			take := decimal.Min(remaining, invoice.OutstandingAmount)
			allocation, err := s.apply(ctx, tx, payment, invoice, take, actor, now)
			if err != nil {
				return err
			}
			created = append(created, allocation)
			remaining = remaining.Sub(take)
		}
		if len(created) == 0 {
			return domain.ErrNothingAllocated
		}
		if remaining.LessThanOrEqual(decimal.Zero) {
			return s.repo.UpdatePaymentStatus(ctx, tx, payment.ID, domain.PaymentStatusAllocated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		for range created {
			s.metrics.RecordAllocation(ctx)
		}
	}
	s.log.Info("payment allocated fifo",
		zap.String("payment_id", paymentID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int("allocations", len(created)),
	)
	return created, nil
}

func (s *Service) Allocate(ctx context.Context, req domain.AllocateRequest) (domain.Allocation, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.Allocation{}, domain.ErrInvalidAmount
	}

	var created domain.Allocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, remaining, err := s.paymentRemaining(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		invoice, err := s.repo.FindInvoiceByID(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrInvoiceNotFound
		}

		// Both guards run before any write.
		if req.Amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: amount %s exceeds payment remaining %s",
				domain.ErrOverAllocation, req.Amount.StringFixed(2), remaining.StringFixed(2))
		}
		if req.Amount.GreaterThan(invoice.OutstandingAmount) {
			return fmt.Errorf("%w: amount %s exceeds invoice outstanding %s",
				domain.ErrOverAllocation, req.Amount.StringFixed(2), invoice.OutstandingAmount.StringFixed(2))
		}

		created, err = s.apply(ctx, tx, payment, invoice, req.Amount, req.Actor, s.clock.Now())
		if err != nil {
			return err
		}
		if remaining.Sub(req.Amount).LessThanOrEqual(decimal.Zero) {
			return s.repo.UpdatePaymentStatus(ctx, tx, payment.ID, domain.PaymentStatusAllocated)
		}
		return nil
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordAllocation(ctx)
	}
	s.log.Info("payment allocated",
		zap.String("payment_id", req.PaymentID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	return created, nil
}

func (s *Service) ReversePayment(ctx context.Context, paymentID snowflake.ID, actor string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindPaymentByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		if payment.Status == domain.PaymentStatusReversed {
			return domain.ErrPaymentReversed
		}

		allocations, err := s.repo.FindAllocationsByPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for _, allocation := range allocations {
			invoice, err := s.repo.FindInvoiceByID(ctx, tx, allocation.InvoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return domain.ErrInvoiceNotFound
			}
			invoice.PaidAmount = invoice.PaidAmount.Sub(allocation.AllocatedAmount)
			invoice.OutstandingAmount = invoice.OutstandingAmount.Add(allocation.AllocatedAmount)
			invoice.Status = domain.StatusFor(invoice.Total, invoice.OutstandingAmount)
			invoice.UpdatedAt = now
			if err := s.repo.UpdateInvoiceSettlement(ctx, tx, invoice); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteAllocationsByPayment(ctx, tx, paymentID); err != nil {
			return err
		}
		return s.repo.UpdatePaymentStatus(ctx, tx, paymentID, domain.PaymentStatusReversed)
	})
	if err != nil {
		return err
	}

	s.log.Info("payment reversed",
		zap.String("payment_id", paymentID.String()),
		zap.String("actor", actor),
	)
	return nil
}

func (s *Service) GetInvoice(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return *invoice, nil
}

// apply writes one allocation and moves the invoice's settled amounts.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, payment *domain.Payment, invoice *domain.Invoice, amount decimal.Decimal, actor string, now time.Time) (domain.Allocation, error) {
	allocation := domain.Allocation{
		ID:              s.genID.Generate(),
		InvoiceID:       invoice.ID,
		PaymentID:       payment.ID,
		AllocatedAmount: amount,
		AllocationDate:  now,
		CreatedBy:       actor,
		CreatedAt:       now,
	}
	if err := s.repo.InsertAllocation(ctx, tx, &allocation); err != nil {
		return domain.Allocation{}, err
	}

	invoice.PaidAmount = invoice.PaidAmount.Add(amount)
	invoice.OutstandingAmount = invoice.OutstandingAmount.Sub(amount)
	invoice.Status = domain.StatusFor(invoice.Total, invoice.OutstandingAmount)
	invoice.UpdatedAt = now
	if err := s.repo.UpdateInvoiceSettlement(ctx, tx, invoice); err != nil {
		return domain.Allocation{}, err
	}
	return allocation, nil
}

func (s *Service) paymentRemaining(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) (*domain.Payment, decimal.Decimal, error) {
	payment, err := s.repo.FindPaymentByID(ctx, tx, paymentID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if payment == nil {
		return nil, decimal.Zero, domain.ErrPaymentNotFound
	}
	if payment.Status == domain.PaymentStatusReversed {
		return nil, decimal.Zero, domain.ErrPaymentReversed
	}
	allocated, err := s.repo.SumAllocatedByPayment(ctx, tx, paymentID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return payment, payment.Amount.Sub(allocated), nil
}

func (s *Service) customer(ctx context.Context, id snowflake.ID) (*partydomain.Party, error) {
	if id == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	party, err := s.partyRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if party == nil || party.Kind != partydomain.KindCustomer {
		return nil, domain.ErrInvalidCustomer
	}
	return party, nil
}
