package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryLine is one unposted voucher line as submitted by a caller.
type EntryLine struct {
	AccountID    snowflake.ID    `json:"account_id"`
	PostingDate  time.Time       `json:"posting_date"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Counterparty Counterparty    `json:"counterparty,omitempty"`
	ExchangeRate decimal.Decimal `json:"exchange_rate,omitempty"`
}

// PostVoucherRequest groups entry lines into one balanced voucher.
type PostVoucherRequest struct {
	VoucherType string      `json:"voucher_type"`
	VoucherNo   string      `json:"voucher_no"`
	Currency    string      `json:"currency"`
	CreatedBy   string      `json:"created_by"`
	Lines       []EntryLine `json:"lines"`
}

// ValidationError describes a single voucher violation. Line is the
// zero-based index of the offending line, or -1 for voucher-level violations.
type ValidationError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("line %d %s: %s", e.Line, e.Field, e.Reason)
}

// ValidationErrors is the full list of violations found in one voucher.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "voucher validation failed: " + strings.Join(parts, "; ")
}

// ValidateShape checks everything about a voucher that needs no storage
// access, accumulating every violation rather than stopping at the first.
func ValidateShape(req PostVoucherRequest) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(req.VoucherType) == "" {
		errs = append(errs, ValidationError{Line: -1, Field: "voucher_type", Reason: "required"})
	}
	if strings.TrimSpace(req.VoucherNo) == "" {
		errs = append(errs, ValidationError{Line: -1, Field: "voucher_no", Reason: "required"})
	}
	if strings.TrimSpace(req.Currency) == "" {
		errs = append(errs, ValidationError{Line: -1, Field: "currency", Reason: "required"})
	}
	if len(req.Lines) < 2 {
		errs = append(errs, ValidationError{Line: -1, Field: "lines", Reason: "a voucher needs at least two lines"})
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, line := range req.Lines {
		if line.AccountID == 0 {
			errs = append(errs, ValidationError{Line: i, Field: "account_id", Reason: "required"})
		}
		if line.PostingDate.IsZero() {
			errs = append(errs, ValidationError{Line: i, Field: "posting_date", Reason: "required"})
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			errs = append(errs, ValidationError{Line: i, Field: "amount", Reason: "debit and credit must not be negative"})
		}
		hasDebit := !line.Debit.IsZero()
		hasCredit := !line.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{Line: i, Field: "amount", Reason: "exactly one of debit or credit must be non-zero"})
		}
		if !line.Counterparty.IsZero() {
			if _, ok := line.Counterparty.PartyKind(); !ok && line.Counterparty.Kind != CounterpartyAccount {
				errs = append(errs, ValidationError{Line: i, Field: "counterparty", Reason: fmt.Sprintf("unknown kind %q", line.Counterparty.Kind)})
			}
			if line.Counterparty.ID == 0 {
				errs = append(errs, ValidationError{Line: i, Field: "counterparty", Reason: "id required when kind is set"})
			}
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if totalDebit.Sub(totalCredit).Abs().GreaterThan(Tolerance) {
		errs = append(errs, ValidationError{
			Line:   -1,
			Field:  "lines",
			Reason: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
		})
	}

	return errs
}
