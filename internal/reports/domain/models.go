package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one leaf account's as-of totals, classified into the
// debit or credit column by the account's normal side. A net that falls on
// the opposite side appears as a positive amount in the opposite column.
type TrialBalanceRow struct {
	AccountID snowflake.ID    `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	// Warning flags a ledger integrity defect (columns out of balance).
	// The report is still returned; the defect is in the data, not the request.
	Warning string `json:"warning,omitempty"`
}

// StatementLine is one account line on the balance sheet or P&L.
type StatementLine struct {
	AccountID snowflake.ID    `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	Warning          string          `json:"warning,omitempty"`
}

type ProfitAndLoss struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Revenue       []StatementLine `json:"revenue"`
	Expenses      []StatementLine `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// AgingRow buckets one customer's outstanding receivables by age in days.
type AgingRow struct {
	CustomerID   snowflake.ID    `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Current      decimal.Decimal `json:"days_0_30"`
	Days31to60   decimal.Decimal `json:"days_31_60"`
	Days61to90   decimal.Decimal `json:"days_61_90"`
	Days91to120  decimal.Decimal `json:"days_91_120"`
	Over120      decimal.Decimal `json:"days_over_120"`
	Total        decimal.Decimal `json:"total"`
}

type ReceivablesAging struct {
	AsOf   time.Time `json:"as_of"`
	Rows   []AgingRow `json:"rows"`
	Totals AgingRow   `json:"totals"`
}

// Service derives reports purely from committed ledger state; it never writes.
type Service interface {
	TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error)
	ProfitAndLoss(ctx context.Context, from, to time.Time) (ProfitAndLoss, error)
	ReceivablesAging(ctx context.Context, asOf time.Time) (ReceivablesAging, error)
}
