package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	settlementdomain "github.com/harborline/ledger/internal/settlement/domain"
	"gorm.io/gorm"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string                          `json:"type"`
	Message string                          `json:"message"`
	Errors  []ledgerdomain.ValidationError  `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var vErrs ledgerdomain.ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, accountdomain.ErrInvalidID),
		errors.Is(err, accountdomain.ErrInvalidCode),
		errors.Is(err, accountdomain.ErrInvalidName),
		errors.Is(err, accountdomain.ErrInvalidType),
		errors.Is(err, accountdomain.ErrParentNotGroup),
		errors.Is(err, accountdomain.ErrParentNotFound),
		errors.Is(err, partydomain.ErrInvalidID),
		errors.Is(err, partydomain.ErrInvalidKind),
		errors.Is(err, partydomain.ErrInvalidName),
		errors.Is(err, partydomain.ErrInvalidEmail),
		errors.Is(err, settlementdomain.ErrInvalidAmount),
		errors.Is(err, settlementdomain.ErrInvalidCustomer):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, accountdomain.ErrCodeTaken),
		errors.Is(err, ledgerdomain.ErrVoucherExists),
		errors.Is(err, ledgerdomain.ErrAlreadyCancelled),
		errors.Is(err, settlementdomain.ErrOverAllocation),
		errors.Is(err, settlementdomain.ErrPaymentReversed),
		errors.Is(err, settlementdomain.ErrNothingAllocated):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, partydomain.ErrNotFound),
		errors.Is(err, ledgerdomain.ErrVoucherNotFound),
		errors.Is(err, settlementdomain.ErrInvoiceNotFound),
		errors.Is(err, settlementdomain.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
