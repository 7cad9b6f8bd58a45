package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	accountrepo "github.com/harborline/ledger/internal/account/repository"
	accountservice "github.com/harborline/ledger/internal/account/service"
	"github.com/harborline/ledger/internal/party/domain"
	partyrepo "github.com/harborline/ledger/internal/party/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPartyService(t *testing.T) (domain.Service, accountdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&accountdomain.Account{}, &domain.Party{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	accountSvc := accountservice.New(accountservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  accountrepo.Provide(),
	})
	partySvc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       partyrepo.Provide(),
		AccountSvc: accountSvc,
	})

	// the account groups party onboarding hangs leaf accounts under
	ctx := context.Background()
	assets, err := accountSvc.Create(ctx, accountdomain.CreateAccountRequest{
		Code: "1000", Name: "Assets", Type: accountdomain.TypeAsset, IsGroup: true,
	})
	require.NoError(t, err)
	liabilities, err := accountSvc.Create(ctx, accountdomain.CreateAccountRequest{
		Code: "2000", Name: "Liabilities", Type: accountdomain.TypeLiability, IsGroup: true,
	})
	require.NoError(t, err)
	_, err = accountSvc.Create(ctx, accountdomain.CreateAccountRequest{
		Code: accountdomain.CodeAccountsReceivable, Name: "Accounts Receivable",
		Type: accountdomain.TypeAsset, IsGroup: true, ParentID: &assets.ID,
	})
	require.NoError(t, err)
	_, err = accountSvc.Create(ctx, accountdomain.CreateAccountRequest{
		Code: accountdomain.CodeAccountsPayable, Name: "Accounts Payable",
		Type: accountdomain.TypeLiability, IsGroup: true, ParentID: &liabilities.ID,
	})
	require.NoError(t, err)

	return partySvc, accountSvc, db
}

func TestCreateCustomer_ProvisionsReceivableAccount(t *testing.T) {
	partySvc, accountSvc, _ := newPartyService(t)
	ctx := context.Background()

	customer, err := partySvc.Create(ctx, domain.CreatePartyRequest{
		Kind:  domain.KindCustomer,
		Name:  "Meridian Shipping Ltd",
		Email: "ap@meridian.example",
	})
	require.NoError(t, err)
	require.NotZero(t, customer.AccountID)

	account, err := accountSvc.GetByID(ctx, customer.AccountID)
	require.NoError(t, err)
	assert.Equal(t, accountdomain.TypeAsset, account.Type)
	assert.False(t, account.IsGroup)
	assert.Equal(t, 3, account.Level)
	assert.Equal(t, fmt.Sprintf("%s-%s", accountdomain.CodeAccountsReceivable, customer.ID), account.Code)
	assert.Equal(t, customer.Name, account.Name)
}

func TestCreateSupplier_ProvisionsPayableAccount(t *testing.T) {
	partySvc, accountSvc, _ := newPartyService(t)
	ctx := context.Background()

	supplier, err := partySvc.Create(ctx, domain.CreatePartyRequest{
		Kind: domain.KindSupplier,
		Name: "Port of Rotterdam Services",
	})
	require.NoError(t, err)

	account, err := accountSvc.GetByID(ctx, supplier.AccountID)
	require.NoError(t, err)
	assert.Equal(t, accountdomain.TypeLiability, account.Type)
	assert.True(t, strings.HasPrefix(account.Code, accountdomain.CodeAccountsPayable+"-"))
}

func TestCreateParty_Validation(t *testing.T) {
	partySvc, _, _ := newPartyService(t)
	ctx := context.Background()

	_, err := partySvc.Create(ctx, domain.CreatePartyRequest{Kind: "vessel", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = partySvc.Create(ctx, domain.CreatePartyRequest{Kind: domain.KindCustomer})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = partySvc.Create(ctx, domain.CreatePartyRequest{Kind: domain.KindCustomer, Name: "x", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestEnsureAccount_Idempotent(t *testing.T) {
	partySvc, _, _ := newPartyService(t)
	ctx := context.Background()

	customer, err := partySvc.Create(ctx, domain.CreatePartyRequest{
		Kind: domain.KindCustomer,
		Name: "Baltic Lines",
	})
	require.NoError(t, err)

	again, err := partySvc.EnsureAccount(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.AccountID, again)
}
