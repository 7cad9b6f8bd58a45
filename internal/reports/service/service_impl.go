package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	"github.com/harborline/ledger/internal/config"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	"github.com/harborline/ledger/internal/reports/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	Cfg config.Config
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	fiscalYearStart time.Month
}

func New(p Params) domain.Service {
	month := p.Cfg.FiscalYearStartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("reports.service"),
		fiscalYearStart: month,
	}
}

// leafTotals is the per-account aggregate every report starts from.
type leafTotals struct {
	AccountID snowflake.ID
	Code      string
	Name      string
	Type      accountdomain.AccountType
	SumDebit  decimal.Decimal
	SumCredit decimal.Decimal
}

func (s *Service) leafTotalsAsOf(ctx context.Context, from, to *time.Time, types []accountdomain.AccountType) ([]leafTotals, error) {
	query := `SELECT a.id AS account_id, a.code, a.name, a.type,
		COALESCE(SUM(e.debit), 0) AS sum_debit,
		COALESCE(SUM(e.credit), 0) AS sum_credit
	 FROM accounts a
	 LEFT JOIN gl_entries e ON e.account_id = a.id AND e.is_cancelled = ?`
	args := []any{false}
	if from != nil {
		query += ` AND e.posting_date >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND e.posting_date <= ?`
		args = append(args, to.UTC())
	}
	query += ` WHERE a.is_group = ?`
	args = append(args, false)
	if len(types) > 0 {
		query += ` AND a.type IN ?`
		typeNames := make([]string, len(types))
		for i, t := range types {
			typeNames[i] = string(t)
		}
		args = append(args, typeNames)
	}
	query += ` GROUP BY a.id, a.code, a.name, a.type ORDER BY a.code`

	var rows []leafTotals
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (domain.TrialBalance, error) {
	totals, err := s.leafTotalsAsOf(ctx, nil, &asOf, nil)
	if err != nil {
		return domain.TrialBalance{}, err
	}

	report := domain.TrialBalance{
		AsOf:        asOf,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, row := range totals {
		if row.SumDebit.IsZero() && row.SumCredit.IsZero() {
			continue
		}
		out := domain.TrialBalanceRow{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      string(row.Type),
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		net := row.SumDebit.Sub(row.SumCredit)
		if row.Type.DebitNormal() {
			if net.IsNegative() {
				out.Credit = net.Neg()
			} else {
				out.Debit = net
			}
		} else {
			net = net.Neg()
			if net.IsNegative() {
				out.Debit = net.Neg()
			} else {
				out.Credit = net
			}
		}
		report.TotalDebit = report.TotalDebit.Add(out.Debit)
		report.TotalCredit = report.TotalCredit.Add(out.Credit)
		report.Rows = append(report.Rows, out)
	}

	if report.TotalDebit.Sub(report.TotalCredit).Abs().GreaterThan(ledgerdomain.Tolerance) {
		report.Warning = fmt.Sprintf("trial balance out of balance: debit %s vs credit %s",
			report.TotalDebit.StringFixed(2), report.TotalCredit.StringFixed(2))
		s.log.Warn("trial balance integrity defect", zap.String("warning", report.Warning))
	}
	return report, nil
}

func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (domain.BalanceSheet, error) {
	totals, err := s.leafTotalsAsOf(ctx, nil, &asOf, []accountdomain.AccountType{
		accountdomain.TypeAsset,
		accountdomain.TypeLiability,
		accountdomain.TypeEquity,
	})
	if err != nil {
		return domain.BalanceSheet{}, err
	}

	report := domain.BalanceSheet{
		AsOf:             asOf,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	for _, row := range totals {
		balance := row.SumDebit.Sub(row.SumCredit)
		if !row.Type.DebitNormal() {
			balance = balance.Neg()
		}
		if balance.IsZero() {
			continue
		}
		line := domain.StatementLine{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Amount:    balance,
		}
		switch row.Type {
		case accountdomain.TypeAsset:
			report.Assets = append(report.Assets, line)
			report.TotalAssets = report.TotalAssets.Add(balance)
		case accountdomain.TypeLiability:
			report.Liabilities = append(report.Liabilities, line)
			report.TotalLiabilities = report.TotalLiabilities.Add(balance)
		case accountdomain.TypeEquity:
			report.Equity = append(report.Equity, line)
			report.TotalEquity = report.TotalEquity.Add(balance)
		}
	}

	// Current-year earnings are not held in an equity account until year
	// close, so the statement carries them as a synthetic retained earnings
	// line computed from the fiscal year to date.
	pnl, err := s.ProfitAndLoss(ctx, s.fiscalYearStartFor(asOf), asOf)
	if err != nil {
		return domain.BalanceSheet{}, err
	}
	report.RetainedEarnings = pnl.NetIncome
	report.TotalEquity = report.TotalEquity.Add(pnl.NetIncome)

	diff := report.TotalAssets.Sub(report.TotalLiabilities.Add(report.TotalEquity))
	if diff.Abs().GreaterThan(ledgerdomain.Tolerance) {
		report.Warning = fmt.Sprintf("balance sheet out of balance by %s", diff.StringFixed(2))
		s.log.Warn("balance sheet integrity defect", zap.String("warning", report.Warning))
	}
	return report, nil
}

func (s *Service) ProfitAndLoss(ctx context.Context, from, to time.Time) (domain.ProfitAndLoss, error) {
	totals, err := s.leafTotalsAsOf(ctx, &from, &to, []accountdomain.AccountType{
		accountdomain.TypeRevenue,
		accountdomain.TypeExpense,
	})
	if err != nil {
		return domain.ProfitAndLoss{}, err
	}

	report := domain.ProfitAndLoss{
		From:          from,
		To:            to,
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, row := range totals {
		switch row.Type {
		case accountdomain.TypeRevenue:
			amount := row.SumCredit.Sub(row.SumDebit)
			if amount.IsZero() {
				continue
			}
			report.Revenue = append(report.Revenue, domain.StatementLine{
				AccountID: row.AccountID, Code: row.Code, Name: row.Name, Amount: amount,
			})
			report.TotalRevenue = report.TotalRevenue.Add(amount)
		case accountdomain.TypeExpense:
			amount := row.SumDebit.Sub(row.SumCredit)
			if amount.IsZero() {
				continue
			}
			report.Expenses = append(report.Expenses, domain.StatementLine{
				AccountID: row.AccountID, Code: row.Code, Name: row.Name, Amount: amount,
			})
			report.TotalExpenses = report.TotalExpenses.Add(amount)
		}
	}
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

func (s *Service) ReceivablesAging(ctx context.Context, asOf time.Time) (domain.ReceivablesAging, error) {
	var rows []struct {
		CustomerID   snowflake.ID
		CustomerName string
		InvoiceDate  time.Time
		Outstanding  decimal.Decimal
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT i.customer_id, p.name AS customer_name, i.date AS invoice_date, i.outstanding_amount AS outstanding
		 FROM invoices i
		 JOIN parties p ON p.id = i.customer_id
		 WHERE i.outstanding_amount > 0 AND i.date <= ?
		 ORDER BY i.customer_id, i.date, i.id`,
		asOf.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return domain.ReceivablesAging{}, err
	}

	report := domain.ReceivablesAging{AsOf: asOf, Totals: zeroAgingRow(0, "Total")}
	byCustomer := make(map[snowflake.ID]int)
	for _, row := range rows {
		idx, ok := byCustomer[row.CustomerID]
		if !ok {
			report.Rows = append(report.Rows, zeroAgingRow(row.CustomerID, row.CustomerName))
			idx = len(report.Rows) - 1
			byCustomer[row.CustomerID] = idx
		}
		entry := &report.Rows[idx]

		age := int(asOf.Sub(row.InvoiceDate).Hours() / 24)
		switch {
		case age <= 30:
			entry.Current = entry.Current.Add(row.Outstanding)
			report.Totals.Current = report.Totals.Current.Add(row.Outstanding)
		case age <= 60:
			entry.Days31to60 = entry.Days31to60.Add(row.Outstanding)
			report.Totals.Days31to60 = report.Totals.Days31to60.Add(row.Outstanding)
		case age <= 90:
			entry.Days61to90 = entry.Days61to90.Add(row.Outstanding)
			report.Totals.Days61to90 = report.Totals.Days61to90.Add(row.Outstanding)
		case age <= 120:
			entry.Days91to120 = entry.Days91to120.Add(row.Outstanding)
			report.Totals.Days91to120 = report.Totals.Days91to120.Add(row.Outstanding)
		default:
			entry.Over120 = entry.Over120.Add(row.Outstanding)
			report.Totals.Over120 = report.Totals.Over120.Add(row.Outstanding)
		}
		entry.Total = entry.Total.Add(row.Outstanding)
		report.Totals.Total = report.Totals.Total.Add(row.Outstanding)
	}
	return report, nil
}

func (s *Service) fiscalYearStartFor(asOf time.Time) time.Time {
	year := asOf.Year()
	if asOf.Month() < s.fiscalYearStart {
		year--
	}
	return time.Date(year, s.fiscalYearStart, 1, 0, 0, 0, 0, time.UTC)
}

func zeroAgingRow(id snowflake.ID, name string) domain.AgingRow {
	return domain.AgingRow{
		CustomerID:   id,
		CustomerName: name,
		Current:      decimal.Zero,
		Days31to60:   decimal.Zero,
		Days61to90:   decimal.Zero,
		Days91to120:  decimal.Zero,
		Over120:      decimal.Zero,
		Total:        decimal.Zero,
	}
}
