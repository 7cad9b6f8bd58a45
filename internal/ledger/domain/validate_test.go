package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testLine(account snowflake.ID, debit, credit string) EntryLine {
	return EntryLine{
		AccountID:   account,
		PostingDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Debit:       decimal.RequireFromString(debit),
		Credit:      decimal.RequireFromString(credit),
	}
}

func TestValidateShape_BalancedVoucherPasses(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	req := PostVoucherRequest{
		VoucherType: "journal",
		VoucherNo:   "JV-001",
		Currency:    "USD",
		Lines: []EntryLine{
			testLine(node.Generate(), "100.00", "0"),
			testLine(node.Generate(), "0", "100.00"),
		},
	}
	assert.Empty(t, ValidateShape(req))
}

func TestValidateShape_WithinToleranceBalances(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	req := PostVoucherRequest{
		VoucherType: "journal",
		VoucherNo:   "JV-002",
		Currency:    "USD",
		Lines: []EntryLine{
			testLine(node.Generate(), "100.01", "0"),
			testLine(node.Generate(), "0", "100.00"),
		},
	}
	assert.Empty(t, ValidateShape(req))

	req.Lines[0].Debit = decimal.RequireFromString("100.02")
	errs := ValidateShape(req)
	assert.Len(t, errs, 1)
	assert.Equal(t, "lines", errs[0].Field)
	assert.Equal(t, -1, errs[0].Line)
}

func TestValidateShape_AccumulatesAllViolations(t *testing.T) {
	req := PostVoucherRequest{
		Lines: []EntryLine{
			{Debit: decimal.RequireFromString("10"), Credit: decimal.RequireFromString("10")},
		},
	}
	errs := ValidateShape(req)

	fields := make(map[string]int)
	for _, e := range errs {
		fields[e.Field]++
	}
	assert.Positive(t, fields["voucher_type"])
	assert.Positive(t, fields["voucher_no"])
	assert.Positive(t, fields["currency"])
	// too few lines, plus the line itself: no account, no date, both sides set
	assert.Positive(t, fields["lines"])
	assert.Positive(t, fields["account_id"])
	assert.Positive(t, fields["posting_date"])
	assert.Positive(t, fields["amount"])
}

func TestValidateShape_ExactlyOneSide(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	req := PostVoucherRequest{
		VoucherType: "journal",
		VoucherNo:   "JV-003",
		Currency:    "USD",
		Lines: []EntryLine{
			testLine(node.Generate(), "50.00", "50.00"),
			testLine(node.Generate(), "0", "0"),
		},
	}
	errs := ValidateShape(req)

	byLine := make(map[int][]ValidationError)
	for _, e := range errs {
		byLine[e.Line] = append(byLine[e.Line], e)
	}
	assert.NotEmpty(t, byLine[0])
	assert.NotEmpty(t, byLine[1])
}

func TestValidateShape_NegativeAmountsRejected(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	req := PostVoucherRequest{
		VoucherType: "journal",
		VoucherNo:   "JV-004",
		Currency:    "USD",
		Lines: []EntryLine{
			testLine(node.Generate(), "-100.00", "0"),
			testLine(node.Generate(), "0", "-100.00"),
		},
	}
	errs := ValidateShape(req)
	count := 0
	for _, e := range errs {
		if e.Field == "amount" && e.Reason == "debit and credit must not be negative" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestValidateShape_CounterpartyShape(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	okLine := testLine(node.Generate(), "0", "100.00")

	bad := testLine(node.Generate(), "100.00", "0")
	bad.Counterparty = Counterparty{Kind: "vessel", ID: node.Generate()}

	req := PostVoucherRequest{
		VoucherType: "journal",
		VoucherNo:   "JV-005",
		Currency:    "USD",
		Lines:       []EntryLine{bad, okLine},
	}
	errs := ValidateShape(req)
	assert.Len(t, errs, 1)
	assert.Equal(t, "counterparty", errs[0].Field)
	assert.Equal(t, 0, errs[0].Line)

	bad.Counterparty = Counterparty{Kind: CounterpartyCustomer}
	req.Lines[0] = bad
	errs = ValidateShape(req)
	assert.Len(t, errs, 1)
	assert.Equal(t, "id required when kind is set", errs[0].Reason)
}
