package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
)

type voucherLineRequest struct {
	AccountID    string `json:"account_id"`
	PostingDate  string `json:"posting_date"`
	Debit        string `json:"debit"`
	Credit       string `json:"credit"`
	Counterparty struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	} `json:"counterparty"`
	ExchangeRate string `json:"exchange_rate"`
}

type postVoucherRequest struct {
	VoucherType string               `json:"voucher_type"`
	VoucherNo   string               `json:"voucher_no"`
	Currency    string               `json:"currency"`
	CreatedBy   string               `json:"created_by"`
	Lines       []voucherLineRequest `json:"lines"`
}

func (s *Server) PostVoucher(c *gin.Context) {
	var req postVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lines := make([]ledgerdomain.EntryLine, 0, len(req.Lines))
	for i, line := range req.Lines {
		parsed, errs := parseVoucherLine(i, line)
		if errs != nil {
			AbortWithError(c, errs)
			return
		}
		lines = append(lines, parsed)
	}

	resp, err := s.ledgerSvc.Post(c.Request.Context(), ledgerdomain.PostVoucherRequest{
		VoucherType: strings.TrimSpace(req.VoucherType),
		VoucherNo:   strings.TrimSpace(req.VoucherNo),
		Currency:    strings.TrimSpace(req.Currency),
		CreatedBy:   strings.TrimSpace(req.CreatedBy),
		Lines:       lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// parseVoucherLine converts the wire shape (string ids and amounts) into a
// domain line, reporting malformed fields with the same line numbering the
// domain validator uses.
func parseVoucherLine(i int, line voucherLineRequest) (ledgerdomain.EntryLine, ledgerdomain.ValidationErrors) {
	var errs ledgerdomain.ValidationErrors
	out := ledgerdomain.EntryLine{}

	if raw := strings.TrimSpace(line.AccountID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "account_id", Reason: "malformed id"})
		} else {
			out.AccountID = id
		}
	}
	if raw := strings.TrimSpace(line.PostingDate); raw != "" {
		date, err := parseOptionalDate(raw, false)
		if err != nil {
			errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "posting_date", Reason: "malformed date"})
		} else if date != nil {
			out.PostingDate = *date
		}
	}

	var err error
	if out.Debit, err = parseOptionalAmount(line.Debit); err != nil {
		errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "debit", Reason: "malformed amount"})
	}
	if out.Credit, err = parseOptionalAmount(line.Credit); err != nil {
		errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "credit", Reason: "malformed amount"})
	}
	if out.ExchangeRate, err = parseOptionalAmount(line.ExchangeRate); err != nil {
		errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "exchange_rate", Reason: "malformed amount"})
	}

	if kind := strings.TrimSpace(line.Counterparty.Kind); kind != "" || strings.TrimSpace(line.Counterparty.ID) != "" {
		out.Counterparty.Kind = ledgerdomain.CounterpartyKind(kind)
		if raw := strings.TrimSpace(line.Counterparty.ID); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				errs = append(errs, ledgerdomain.ValidationError{Line: i, Field: "counterparty", Reason: "malformed id"})
			} else {
				out.Counterparty.ID = id
			}
		}
	}

	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

func (s *Server) GetVoucher(c *gin.Context) {
	entries, err := s.ledgerSvc.GetVoucher(c.Request.Context(), c.Param("type"), c.Param("no"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) CancelVoucher(c *gin.Context) {
	var req struct {
		Actor string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reversals, err := s.ledgerSvc.Cancel(c.Request.Context(), c.Param("type"), c.Param("no"), strings.TrimSpace(req.Actor))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reversals})
}
