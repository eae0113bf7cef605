package apierrors

import (
	"fmt"
	"net/http"
)

// Error codes returned in API responses.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeCompanyNotFound     = "COMPANY_NOT_FOUND"
	CodeCampaignNotFound    = "CAMPAIGN_NOT_FOUND"
	CodeTargetNotFound      = "TARGET_NOT_FOUND"
	CodeTemplateNotFound    = "TEMPLATE_NOT_FOUND"
	CodePlanNotFound        = "PLAN_NOT_FOUND"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeInvalidType         = "INVALID_CAMPAIGN_TYPE"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
	CodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	CodeCampaignNotEditable = "CAMPAIGN_NOT_EDITABLE"
	CodeCampaignNotActive   = "CAMPAIGN_NOT_ACTIVE"
	CodeNoTargets           = "NO_TARGETS"
	CodeTargetLimitExceeded = "TARGET_LIMIT_EXCEEDED"
	CodePaymentDeclined     = "PAYMENT_DECLINED"
	CodePaymentNotPending   = "PAYMENT_NOT_PENDING"
	CodeForbidden           = "FORBIDDEN"
	CodeEmailServiceError   = "EMAIL_SERVICE_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// APIError carries an HTTP status, a stable machine-readable code and a
// client-safe message. Internal holds the underlying error for logging only
// and is never serialized.
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

// NewBadRequest builds a 400 error
func NewBadRequest(code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Message: message}
}

// NewUnauthorized builds a 401 error
func NewUnauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// NewForbidden builds a 403 error
func NewForbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// NewNotFound builds a 404 error
func NewNotFound(code, message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: code, Message: message}
}

// NewConflict builds a 409 error
func NewConflict(code, message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: code, Message: message}
}

// NewServiceUnavailable builds a 503 error wrapping the internal cause
func NewServiceUnavailable(code, message string, internalErr error) *APIError {
	return &APIError{Status: http.StatusServiceUnavailable, Code: code, Message: message, Internal: internalErr}
}

// NewInternalError builds a sanitized 500 error - never exposes internal details
func NewInternalError(internalErr error) *APIError {
	return &APIError{
		Status:   http.StatusInternalServerError,
		Code:     CodeInternalError,
		Message:  "An internal error occurred. Please try again later.",
		Internal: internalErr,
	}
}
