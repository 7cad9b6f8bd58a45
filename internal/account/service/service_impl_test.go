package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/harborline/ledger/internal/account/domain"
	accountrepo "github.com/harborline/ledger/internal/account/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Account{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  accountrepo.Provide(),
	})
	return svc, db, node
}

func TestCreate_RootAndChild(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, domain.CreateAccountRequest{
		Code:     "1000",
		Name:     "Assets",
		Type:     domain.TypeAsset,
		IsGroup:  true,
		Currency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, root.Level)
	assert.True(t, root.IsActive)

	child, err := svc.Create(ctx, domain.CreateAccountRequest{
		Code:     "1010",
		Name:     "Cash",
		Type:     domain.TypeAsset,
		ParentID: &root.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, child.Level)
	// currency inherited from the parent when not given
	assert.Equal(t, "EUR", child.Currency)
	assert.True(t, child.Postable())

	got, err := svc.GetByCode(ctx, "1010")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, node := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateAccountRequest{Name: "x", Type: domain.TypeAsset})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{Code: "1", Type: domain.TypeAsset})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{Code: "1", Name: "x", Type: "vessel"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	missing := node.Generate()
	_, err = svc.Create(ctx, domain.CreateAccountRequest{Code: "1", Name: "x", Type: domain.TypeAsset, ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestCreate_DuplicateCodeAndLeafParent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	leaf, err := svc.Create(ctx, domain.CreateAccountRequest{Code: "1010", Name: "Cash", Type: domain.TypeAsset})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{Code: "1010", Name: "Cash Again", Type: domain.TypeAsset})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{Code: "1011", Name: "Petty Cash", Type: domain.TypeAsset, ParentID: &leaf.ID})
	assert.ErrorIs(t, err, domain.ErrParentNotGroup)
}

func TestSetFrozenAndActive(t *testing.T) {
	svc, _, node := newService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Code: "1020", Name: "Harbor Bank", Type: domain.TypeAsset})
	require.NoError(t, err)

	require.NoError(t, svc.SetFrozen(ctx, account.ID, true))
	got, err := svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Frozen)
	assert.False(t, got.Postable())

	require.NoError(t, svc.SetActive(ctx, account.ID, false))
	got, err = svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.Frozen, "freezing must survive the active toggle")

	_, err = svc.GetByID(ctx, node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
