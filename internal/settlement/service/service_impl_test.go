package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	accountrepo "github.com/harborline/ledger/internal/account/repository"
	"github.com/harborline/ledger/internal/clock"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	partyrepo "github.com/harborline/ledger/internal/party/repository"
	"github.com/harborline/ledger/internal/settlement/domain"
	settlementrepo "github.com/harborline/ledger/internal/settlement/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type settlementFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      domain.Service
	customer partydomain.Party
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&partydomain.Party{},
		&domain.Invoice{},
		&domain.Payment{},
		&domain.Allocation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	f := &settlementFixture{db: db, node: node, clock: fake}

	now := fake.Now()
	arLeaf := accountdomain.Account{
		ID: node.Generate(), Code: "1200-1", Name: "Meridian Shipping",
		Type: accountdomain.TypeAsset, Level: 3,
		Balance: decimal.Zero, Currency: "USD", IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&arLeaf).Error)

	f.customer = partydomain.Party{
		ID: node.Generate(), Kind: partydomain.KindCustomer,
		Name: "Meridian Shipping", AccountID: arLeaf.ID,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&f.customer).Error)

	f.svc = New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        settlementrepo.Provide(),
		PartyRepo:   partyrepo.Provide(),
		AccountRepo: accountrepo.Provide(),
	})
	return f
}

func (f *settlementFixture) invoice(t *testing.T, date time.Time, total string) domain.Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: f.customer.ID,
		Date:       date,
		Total:      decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	return inv
}

func (f *settlementFixture) payment(t *testing.T, amount string) domain.Payment {
	t.Helper()
	p, err := f.svc.CreatePayment(context.Background(), domain.CreatePaymentRequest{
		CustomerID: f.customer.ID,
		Amount:     decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return p
}

func (f *settlementFixture) paymentStatus(t *testing.T, id snowflake.ID) domain.PaymentStatus {
	t.Helper()
	var p domain.Payment
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.Status
}

func (f *settlementFixture) allocationCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Allocation{}).Count(&n).Error)
	return n
}

func TestCreateInvoice_Defaults(t *testing.T) {
	f := newSettlementFixture(t)

	inv := f.invoice(t, time.Time{}, "750.00")
	assert.Equal(t, f.customer.AccountID, inv.AccountID)
	assert.Equal(t, domain.InvoiceStatusUnpaid, inv.Status)
	assert.True(t, inv.OutstandingAmount.Equal(inv.Total))
	assert.Equal(t, f.clock.Now(), inv.Date)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), inv.DueDate)
}

func TestCreateInvoice_Validation(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateInvoice(ctx, domain.CreateInvoiceRequest{
		CustomerID: f.customer.ID, Total: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.CreateInvoice(ctx, domain.CreateInvoiceRequest{
		CustomerID: f.node.Generate(), Total: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestCreatePayment_Validation(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePayment(ctx, domain.CreatePaymentRequest{
		CustomerID: f.customer.ID, Amount: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.CreatePayment(ctx, domain.CreatePaymentRequest{
		CustomerID: f.node.Generate(), Amount: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestAllocateFIFO_OldestInvoiceFirst(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	old := f.invoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "500.00")
	recent := f.invoice(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), "800.00")
	payment := f.payment(t, "1000.00")

	allocations, err := f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, old.ID, allocations[0].InvoiceID)
	assert.True(t, allocations[0].AllocatedAmount.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, recent.ID, allocations[1].InvoiceID)
	assert.True(t, allocations[1].AllocatedAmount.Equal(decimal.RequireFromString("500.00")))

	gotOld, err := f.svc.GetInvoice(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, gotOld.Status)
	assert.True(t, gotOld.OutstandingAmount.IsZero())

	gotRecent, err := f.svc.GetInvoice(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartiallyPaid, gotRecent.Status)
	assert.True(t, gotRecent.OutstandingAmount.Equal(decimal.RequireFromString("300.00")))

	// the payment is fully consumed
	assert.Equal(t, domain.PaymentStatusAllocated, f.paymentStatus(t, payment.ID))

	// a second payment finishes the partially paid invoice
	second := f.payment(t, "300.00")
	allocations, err = f.svc.AllocateFIFO(ctx, second.ID, f.customer.ID, "clerk")
	require.NoError(t, err)
	require.Len(t, allocations, 1)

	gotRecent, err = f.svc.GetInvoice(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, gotRecent.Status)
}

func TestAllocateFIFO_LeavesRemainderUnallocated(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.invoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "400.00")
	payment := f.payment(t, "1000.00")

	allocations, err := f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].AllocatedAmount.Equal(decimal.RequireFromString("400.00")))

	// 600 still unallocated, payment stays received
	assert.Equal(t, domain.PaymentStatusReceived, f.paymentStatus(t, payment.ID))
}

func TestAllocateFIFO_NothingToAllocate(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	payment := f.payment(t, "100.00")
	_, err := f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	assert.ErrorIs(t, err, domain.ErrNothingAllocated)

	f.invoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "100.00")
	_, err = f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	require.NoError(t, err)

	// fully consumed payments have no remaining amount
	_, err = f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	assert.ErrorIs(t, err, domain.ErrNothingAllocated)
}

func TestAllocateFIFO_CounterpartyMismatch(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	payment := f.payment(t, "100.00")
	_, err := f.svc.AllocateFIFO(ctx, payment.ID, f.node.Generate(), "clerk")
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestAllocate_RejectsOverAllocationBeforeWriting(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	invoice := f.invoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "200.00")
	payment := f.payment(t, "150.00")

	// exceeds the payment
	_, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		PaymentID: payment.ID, InvoiceID: invoice.ID,
		Amount: decimal.RequireFromString("150.01"), Actor: "clerk",
	})
	assert.ErrorIs(t, err, domain.ErrOverAllocation)
	assert.Zero(t, f.allocationCount(t))

	// exceeds the invoice
	big := f.payment(t, "500.00")
	_, err = f.svc.Allocate(ctx, domain.AllocateRequest{
		PaymentID: big.ID, InvoiceID: invoice.ID,
		Amount: decimal.RequireFromString("200.01"), Actor: "clerk",
	})
	assert.ErrorIs(t, err, domain.ErrOverAllocation)
	assert.Zero(t, f.allocationCount(t))

	allocation, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		PaymentID: payment.ID, InvoiceID: invoice.ID,
		Amount: decimal.RequireFromString("150.00"), Actor: "clerk",
	})
	require.NoError(t, err)
	assert.True(t, allocation.AllocatedAmount.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, domain.PaymentStatusAllocated, f.paymentStatus(t, payment.ID))

	got, err := f.svc.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartiallyPaid, got.Status)
}

func TestReversePayment_RestoresInvoices(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	invoice := f.invoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "500.00")
	payment := f.payment(t, "500.00")
	_, err := f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	require.NoError(t, err)

	require.NoError(t, f.svc.ReversePayment(ctx, payment.ID, "auditor"))

	got, err := f.svc.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusUnpaid, got.Status)
	assert.True(t, got.OutstandingAmount.Equal(got.Total))
	assert.True(t, got.PaidAmount.IsZero())
	assert.Zero(t, f.allocationCount(t))
	assert.Equal(t, domain.PaymentStatusReversed, f.paymentStatus(t, payment.ID))

	// reversed payments are terminal
	err = f.svc.ReversePayment(ctx, payment.ID, "auditor")
	assert.ErrorIs(t, err, domain.ErrPaymentReversed)
	_, err = f.svc.AllocateFIFO(ctx, payment.ID, f.customer.ID, "clerk")
	assert.ErrorIs(t, err, domain.ErrPaymentReversed)
}

func TestReversePayment_Unknown(t *testing.T) {
	f := newSettlementFixture(t)
	err := f.svc.ReversePayment(context.Background(), f.node.Generate(), "auditor")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}
