package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// chartEntry describes one seeded account. Parent refers to another entry's
// code; empty means root.
type chartEntry struct {
	Code    string
	Name    string
	Type    accountdomain.AccountType
	IsGroup bool
	Parent  string
}

// defaultChart is the bootstrap chart of accounts for a shipping line.
// The AR and AP nodes are groups: party onboarding hangs per-party leaf
// accounts under them.
var defaultChart = []chartEntry{
	{Code: "1000", Name: "Assets", Type: accountdomain.TypeAsset, IsGroup: true},
	{Code: "1010", Name: "Cash", Type: accountdomain.TypeAsset, Parent: "1000"},
	{Code: "1020", Name: "Harbor Bank", Type: accountdomain.TypeAsset, Parent: "1000"},
	{Code: accountdomain.CodeAccountsReceivable, Name: "Accounts Receivable", Type: accountdomain.TypeAsset, IsGroup: true, Parent: "1000"},

	{Code: "2000", Name: "Liabilities", Type: accountdomain.TypeLiability, IsGroup: true},
	{Code: accountdomain.CodeAccountsPayable, Name: "Accounts Payable", Type: accountdomain.TypeLiability, IsGroup: true, Parent: "2000"},
	{Code: "2200", Name: "Tax Payable", Type: accountdomain.TypeLiability, Parent: "2000"},

	{Code: "3000", Name: "Equity", Type: accountdomain.TypeEquity, IsGroup: true},
	{Code: "3100", Name: "Share Capital", Type: accountdomain.TypeEquity, Parent: "3000"},

	{Code: "4000", Name: "Revenue", Type: accountdomain.TypeRevenue, IsGroup: true},
	{Code: "4100", Name: "Freight Revenue", Type: accountdomain.TypeRevenue, Parent: "4000"},
	{Code: "4200", Name: "Demurrage Revenue", Type: accountdomain.TypeRevenue, Parent: "4000"},

	{Code: "5000", Name: "Expenses", Type: accountdomain.TypeExpense, IsGroup: true},
	{Code: "5100", Name: "Bunker Fuel", Type: accountdomain.TypeExpense, Parent: "5000"},
	{Code: "5200", Name: "Port Charges", Type: accountdomain.TypeExpense, Parent: "5000"},
	{Code: "5300", Name: "Crew Wages", Type: accountdomain.TypeExpense, Parent: "5000"},
}

// EnsureChartOfAccounts seeds the default chart for startup bootstrap.
// Idempotent: accounts already present by code are left untouched.
func EnsureChartOfAccounts(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byCode := make(map[string]*accountdomain.Account, len(defaultChart))
		for _, entry := range defaultChart {
			account, err := ensureAccountTx(ctx, tx, node, entry, byCode)
			if err != nil {
				return err
			}
			byCode[entry.Code] = account
		}
		return nil
	})
}

func ensureAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, entry chartEntry, byCode map[string]*accountdomain.Account) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := tx.WithContext(ctx).Where("code = ?", entry.Code).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	level := 1
	var parentID *snowflake.ID
	if entry.Parent != "" {
		parent, ok := byCode[entry.Parent]
		if !ok {
			return nil, errors.New("seed chart parent not defined before child: " + entry.Parent)
		}
		id := parent.ID
		parentID = &id
		level = parent.Level + 1
	}

	now := time.Now().UTC()
	account = accountdomain.Account{
		ID:        node.Generate(),
		Code:      entry.Code,
		Name:      entry.Name,
		Type:      entry.Type,
		IsGroup:   entry.IsGroup,
		ParentID:  parentID,
		Level:     level,
		Balance:   decimal.Zero,
		Currency:  "USD",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
