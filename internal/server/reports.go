package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetTrialBalance(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if asOf == nil {
		now := time.Now().UTC()
		asOf = &now
	}

	report, err := s.reportsSvc.TrialBalance(c.Request.Context(), *asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetBalanceSheet(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if asOf == nil {
		now := time.Now().UTC()
		asOf = &now
	}

	report, err := s.reportsSvc.BalanceSheet(c.Request.Context(), *asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetProfitAndLoss(c *gin.Context) {
	from, err := parseOptionalDate(c.Query("from"), false)
	if err != nil || from == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	to, err := parseOptionalDate(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if to == nil {
		now := time.Now().UTC()
		to = &now
	}

	report, err := s.reportsSvc.ProfitAndLoss(c.Request.Context(), *from, *to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetReceivablesAging(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if asOf == nil {
		now := time.Now().UTC()
		asOf = &now
	}

	report, err := s.reportsSvc.ReceivablesAging(c.Request.Context(), *asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}
