package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
)

type createAccountRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsGroup  bool   `json:"is_group"`
	ParentID string `json:"parent_id"`
	Currency string `json:"currency"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	domainReq := accountdomain.CreateAccountRequest{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Type:     accountdomain.AccountType(strings.TrimSpace(req.Type)),
		IsGroup:  req.IsGroup,
		Currency: strings.TrimSpace(req.Currency),
	}
	if raw := strings.TrimSpace(req.ParentID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, accountdomain.ErrParentNotFound)
			return
		}
		domainReq.ParentID = &id
	}

	resp, err := s.accountSvc.Create(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccount(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrInvalidID)
		return
	}
	resp, err := s.accountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccountChildren(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrInvalidID)
		return
	}
	resp, err := s.accountSvc.ListChildren(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccountBalance(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, accountdomain.ErrInvalidID)
		return
	}
	balance, err := s.accountSvc.GetBalance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"account_id": id.String(),
		"balance":    balance,
	}})
}

func (s *Server) RecalculateBalances(c *gin.Context) {
	changed, err := s.balanceWorker.RecalculateAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"changed_accounts": changed}})
}
