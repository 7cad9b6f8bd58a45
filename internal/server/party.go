package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	partydomain "github.com/harborline/ledger/internal/party/domain"
)

type createPartyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	s.createParty(c, partydomain.KindCustomer)
}

func (s *Server) CreateSupplier(c *gin.Context) {
	s.createParty(c, partydomain.KindSupplier)
}

func (s *Server) CreateEmployee(c *gin.Context) {
	s.createParty(c, partydomain.KindEmployee)
}

func (s *Server) createParty(c *gin.Context, kind partydomain.PartyKind) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.partySvc.Create(c.Request.Context(), partydomain.CreatePartyRequest{
		Kind:     kind,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetParty(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, partydomain.ErrInvalidID)
		return
	}
	resp, err := s.partySvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
