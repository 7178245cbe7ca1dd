package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/cyberdesk/internal/order/domain"
	receiptdomain "github.com/smallbiznis/cyberdesk/internal/receipt/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/smallbiznis/cyberdesk/internal/session/live"
	subscriptiondomain "github.com/smallbiznis/cyberdesk/internal/subscription/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, deskdomain.ErrNotConfigured):
		return http.StatusConflict, errorPayload{
			Type:    "not_configured",
			Message: "business is not configured",
		}
	case errors.Is(err, deskdomain.ErrSessionActive):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "session is still running",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, live.ErrHubUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the envelope type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	ErrInvalidRequest,
	deskdomain.ErrInvalidRequest,
	deskdomain.ErrInvalidKind,
	receiptdomain.ErrInvalidFormat,
	billing.ErrInvalidBillable,
	live.ErrInvalidSessionID,
	businessdomain.ErrInvalidOwner,
	businessdomain.ErrInvalidName,
	businessdomain.ErrInvalidPrice,
	businessdomain.ErrInvalidCurrency,
	sessiondomain.ErrInvalidType,
	sessiondomain.ErrInvalidClientName,
	sessiondomain.ErrInvalidMinutes,
	sessiondomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidClientName,
	orderdomain.ErrInvalidClientName,
	orderdomain.ErrInvalidItem,
	orderdomain.ErrInvalidCategory,
	orderdomain.ErrInvalidPrice,
	ledgerdomain.ErrInvalidDescription,
	ledgerdomain.ErrInvalidAmount,
	ledgerdomain.ErrInvalidType,
	ledgerdomain.ErrInvalidOccurredAt,
}

// validationSentinel returns the first known validation error wrapped by err.
func validationSentinel(err error) error {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isValidationError(err error) bool {
	return validationSentinel(err) != nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sessiondomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	sentinel := validationSentinel(err)
	switch {
	case sentinel == nil:
		return "invalid_request"
	case errors.Is(sentinel, ErrInvalidRequest),
		errors.Is(sentinel, deskdomain.ErrInvalidRequest):
		return "invalid_request"
	default:
		return sentinel.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
