package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settlementdomain "github.com/harborline/ledger/internal/settlement/domain"
)

type createInvoiceRequest struct {
	CustomerID string `json:"customer_id"`
	Date       string `json:"date"`
	DueDate    string `json:"due_date"`
	Total      string `json:"total"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvalidCustomer)
		return
	}
	total, err := parseOptionalAmount(req.Total)
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvalidAmount)
		return
	}
	date, err := parseOptionalDate(req.Date, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	domainReq := settlementdomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Total:      total,
	}
	if date != nil {
		domainReq.Date = *date
	}
	if dueDate != nil {
		domainReq.DueDate = *dueDate
	}

	resp, err := s.settlementSvc.CreateInvoice(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvoiceNotFound)
		return
	}
	resp, err := s.settlementSvc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createPaymentRequest struct {
	CustomerID string `json:"customer_id"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	AccountID  string `json:"account_id"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvalidCustomer)
		return
	}
	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvalidAmount)
		return
	}
	date, err := parseOptionalDate(req.Date, false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	domainReq := settlementdomain.CreatePaymentRequest{
		CustomerID: customerID,
		Amount:     amount,
	}
	if date != nil {
		domainReq.Date = *date
	}
	if raw := strings.TrimSpace(req.AccountID); raw != "" {
		accountID, err := parseID(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		domainReq.AccountID = accountID
	}

	resp, err := s.settlementSvc.CreatePayment(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type allocatePaymentRequest struct {
	CustomerID string `json:"customer_id"`
	InvoiceID  string `json:"invoice_id"`
	Amount     string `json:"amount"`
	Actor      string `json:"actor"`
}

// AllocatePayment settles a payment against invoices. With an invoice_id the
// amount goes to that invoice alone; otherwise the payment is walked through
// the customer's open invoices oldest first.
func (s *Server) AllocatePayment(c *gin.Context) {
	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, settlementdomain.ErrPaymentNotFound)
		return
	}

	var req allocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor := strings.TrimSpace(req.Actor)

	if raw := strings.TrimSpace(req.InvoiceID); raw != "" {
		invoiceID, err := parseID(raw)
		if err != nil {
			AbortWithError(c, settlementdomain.ErrInvoiceNotFound)
			return
		}
		amount, err := parseOptionalAmount(req.Amount)
		if err != nil {
			AbortWithError(c, settlementdomain.ErrInvalidAmount)
			return
		}
		allocation, err := s.settlementSvc.Allocate(c.Request.Context(), settlementdomain.AllocateRequest{
			PaymentID: paymentID,
			InvoiceID: invoiceID,
			Amount:    amount,
			Actor:     actor,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []settlementdomain.Allocation{allocation}})
		return
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		AbortWithError(c, settlementdomain.ErrInvalidCustomer)
		return
	}
	allocations, err := s.settlementSvc.AllocateFIFO(c.Request.Context(), paymentID, customerID, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": allocations})
}

func (s *Server) ReversePayment(c *gin.Context) {
	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, settlementdomain.ErrPaymentNotFound)
		return
	}

	var req struct {
		Actor string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.settlementSvc.ReversePayment(c.Request.Context(), paymentID, strings.TrimSpace(req.Actor)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "reversed"}})
}
