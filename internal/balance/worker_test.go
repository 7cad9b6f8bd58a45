package balance

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
	"github.com/harborline/ledger/internal/events"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	ledgerrepo "github.com/harborline/ledger/internal/ledger/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type workerFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	worker *Worker
	hub    *events.Hub

	assets  accountdomain.Account
	cash    accountdomain.Account
	revenue accountdomain.Account
	freight accountdomain.Account
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&accountdomain.Account{}, &ledgerdomain.GLEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	hub := events.NewHub()
	worker := NewWorker(Params{
		DB:          db,
		Log:         zap.NewNop(),
		AccountRepo: accountrepo.Provide(),
		LedgerRepo:  ledgerrepo.Provide(),
		Hub:         hub,
	})

	f := &workerFixture{db: db, node: node, worker: worker, hub: hub}
	f.assets = f.seedAccount(t, "1000", accountdomain.TypeAsset, true, 1, nil)
	f.cash = f.seedAccount(t, "1010", accountdomain.TypeAsset, false, 2, &f.assets.ID)
	f.revenue = f.seedAccount(t, "4000", accountdomain.TypeRevenue, true, 1, nil)
	f.freight = f.seedAccount(t, "4100", accountdomain.TypeRevenue, false, 2, &f.revenue.ID)
	return f
}

func (f *workerFixture) seedAccount(t *testing.T, code string, typ accountdomain.AccountType, isGroup bool, level int, parentID *snowflake.ID) accountdomain.Account {
	t.Helper()
	now := time.Now().UTC()
	account := accountdomain.Account{
		ID:        f.node.Generate(),
		Code:      code,
		Name:      code,
		Type:      typ,
		IsGroup:   isGroup,
		ParentID:  parentID,
		Level:     level,
		Balance:   decimal.Zero,
		Currency:  "USD",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.db.Create(&account).Error)
	return account
}

func (f *workerFixture) postEntry(t *testing.T, account snowflake.ID, debit, credit string, cancelled bool) {
	t.Helper()
	entry := ledgerdomain.GLEntry{
		ID:           f.node.Generate(),
		PostingDate:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		AccountID:    account,
		Debit:        decimal.RequireFromString(debit),
		Credit:       decimal.RequireFromString(credit),
		VoucherType:  "journal",
		VoucherNo:    "JV-TEST",
		IsCancelled:  cancelled,
		Currency:     "USD",
		ExchangeRate: decimal.NewFromInt(1),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&entry).Error)
}

func (f *workerFixture) storedBalance(t *testing.T, id snowflake.ID) decimal.Decimal {
	t.Helper()
	var account accountdomain.Account
	require.NoError(t, f.db.First(&account, "id = ?", id).Error)
	return account.Balance
}

func TestDrainOnce_PropagatesLeafAndAncestors(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.postEntry(t, f.cash.ID, "1000.00", "0", false)
	f.postEntry(t, f.freight.ID, "0", "1000.00", false)

	sub := f.hub.Subscribe()
	defer sub.Close()

	f.worker.Enqueue("voucher posted", f.cash.ID, f.freight.ID)
	changed, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	// two leaves plus their two parent groups
	assert.Equal(t, 4, changed)

	assert.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.storedBalance(t, f.assets.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.storedBalance(t, f.freight.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.storedBalance(t, f.revenue.ID).Equal(decimal.RequireFromString("1000.00")))

	received := 0
	for range changed {
		select {
		case ev := <-sub.Events():
			received++
			assert.NotZero(t, ev.AccountID)
			assert.Equal(t, "voucher posted", ev.Reason)
		default:
			t.Fatalf("expected %d events, got %d", changed, received)
		}
	}
}

func TestDrainOnce_EmptyQueueAndIdempotence(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	changed, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)

	f.postEntry(t, f.cash.ID, "250.00", "0", false)
	f.worker.Enqueue("voucher posted", f.cash.ID)
	_, err = f.worker.DrainOnce(ctx)
	require.NoError(t, err)

	// recomputing from the same facts changes nothing
	f.worker.Enqueue("retry", f.cash.ID)
	changed, err = f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestDrainOnce_DeduplicatesSignals(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.postEntry(t, f.cash.ID, "100.00", "0", false)
	f.worker.Enqueue("a", f.cash.ID)
	f.worker.Enqueue("b", f.cash.ID)
	f.worker.Enqueue("c", f.cash.ID, f.cash.ID)

	changed, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed) // cash and its parent, once each
}

func TestDrainOnce_IgnoresCancelledEntries(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.postEntry(t, f.cash.ID, "500.00", "0", false)
	f.postEntry(t, f.cash.ID, "300.00", "0", true)

	f.worker.Enqueue("voucher posted", f.cash.ID)
	_, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)

	assert.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("500.00")))
}

func TestDrainOnce_RequeuesFailedAccountForNextDrain(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.postEntry(t, f.cash.ID, "100.00", "0", false)
	f.worker.Enqueue("voucher posted", f.cash.ID)
	_, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	require.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("100.00")))

	f.postEntry(t, f.cash.ID, "50.00", "0", false)

	// hide the facts table so recomputation fails mid-drain
	require.NoError(t, f.db.Exec("ALTER TABLE gl_entries RENAME TO gl_entries_hidden").Error)
	f.worker.Enqueue("voucher posted", f.cash.ID)
	changed, err := f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("100.00")))

	// once the fault clears, the requeued id catches up without a new signal
	require.NoError(t, f.db.Exec("ALTER TABLE gl_entries_hidden RENAME TO gl_entries").Error)
	changed, err = f.worker.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("150.00")))
	assert.True(t, f.storedBalance(t, f.assets.ID).Equal(decimal.RequireFromString("150.00")))
}

func TestRecalculateAll_RepairsTamperedBalances(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	f.postEntry(t, f.cash.ID, "1000.00", "0", false)
	f.postEntry(t, f.freight.ID, "0", "1000.00", false)

	// corrupt the stored values
	require.NoError(t, f.db.Exec("UPDATE accounts SET balance = 999999").Error)

	changed, err := f.worker.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, changed)

	assert.True(t, f.storedBalance(t, f.cash.ID).Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, f.storedBalance(t, f.assets.ID).Equal(decimal.RequireFromString("1000.00")))

	changed, err = f.worker.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}
