package apierrors

import (
	"errors"
	"strings"

	analyticsProcessor "phishsim-server/internal/analytics/processor"
	authProcessor "phishsim-server/internal/auth/processor"
	billingProcessor "phishsim-server/internal/billing/processor"
	campaignProcessor "phishsim-server/internal/campaign/processor"
	dispatchProcessor "phishsim-server/internal/campaignemails/processor"
	"phishsim-server/internal/store"
)

// MapError converts domain/processor errors to APIErrors.
// This function centralizes all error mapping logic to ensure consistent
// error responses across the entire API.
//
// If the error is already an APIError, it returns it as-is.
// If the error is a known domain error, it maps it to an appropriate APIError.
// If the error is unknown, it returns a sanitized InternalError (500).
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// Auth processor errors
	case errors.Is(err, authProcessor.ErrEmailAlreadyExists):
		return NewConflict(CodeEmailExists, "Email already exists")

	case errors.Is(err, authProcessor.ErrInvalidCredentials):
		return NewUnauthorized("Invalid email or password")

	case errors.Is(err, authProcessor.ErrIncorrectPassword):
		return NewUnauthorized("Current password is incorrect")

	case errors.Is(err, authProcessor.ErrCompanyNotFound):
		return NewNotFound(CodeCompanyNotFound, "Company not found")

	// Campaign processor errors
	case errors.Is(err, campaignProcessor.ErrCampaignNotFound):
		return NewNotFound(CodeCampaignNotFound, "Campaign not found")

	case errors.Is(err, campaignProcessor.ErrInvalidCampaignType):
		return NewBadRequest(CodeInvalidType, "Invalid campaign type. Valid values: phishing, awareness, training")

	case errors.Is(err, campaignProcessor.ErrInvalidDateRange):
		return NewBadRequest(CodeInvalidDateRange, "End date must be after start date")

	case errors.Is(err, campaignProcessor.ErrInvalidStatusTransition):
		return NewConflict(CodeInvalidTransition, "Campaign status does not allow this transition")

	case errors.Is(err, campaignProcessor.ErrCampaignNotEditable):
		return NewConflict(CodeCampaignNotEditable, "Campaign can only be modified while in draft")

	case errors.Is(err, campaignProcessor.ErrTargetLimitExceeded):
		return NewBadRequest(CodeTargetLimitExceeded, "Target count exceeds the plan limit")

	// Dispatch processor errors
	case errors.Is(err, dispatchProcessor.ErrCampaignNotActive):
		return NewConflict(CodeCampaignNotActive, "Campaign must be active to send emails")

	case errors.Is(err, dispatchProcessor.ErrNoTargets):
		return NewBadRequest(CodeNoTargets, "Campaign has no targets")

	case errors.Is(err, dispatchProcessor.ErrTemplateNotFound):
		return NewNotFound(CodeTemplateNotFound, "No email template matches the campaign type")

	case errors.Is(err, dispatchProcessor.ErrTargetNotFound):
		return NewNotFound(CodeTargetNotFound, "Target not found")

	case errors.Is(err, dispatchProcessor.ErrCampaignNotFound):
		return NewNotFound(CodeCampaignNotFound, "Campaign not found")

	// Billing processor errors
	case errors.Is(err, billingProcessor.ErrPlanNotFound):
		return NewNotFound(CodePlanNotFound, "Plan not found")

	case errors.Is(err, billingProcessor.ErrPaymentNotFound):
		return NewNotFound(CodePaymentNotFound, "Payment not found")

	case errors.Is(err, billingProcessor.ErrPaymentDeclined):
		return NewBadRequest(CodePaymentDeclined, "Payment was declined by the gateway")

	case errors.Is(err, billingProcessor.ErrPaymentNotPending):
		return NewConflict(CodePaymentNotPending, "Payment is no longer pending")

	// Analytics processor errors
	case errors.Is(err, analyticsProcessor.ErrCampaignNotFound):
		return NewNotFound(CodeCampaignNotFound, "Campaign not found")

	// Store fallback
	case errors.Is(err, store.ErrNotFound):
		return NewNotFound("NOT_FOUND", "Resource not found")
	}

	// Email service errors (Resend)
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "resend") || strings.Contains(errMsg, "email service") {
		return NewServiceUnavailable(
			CodeEmailServiceError,
			"Email service is temporarily unavailable. Please try again later.",
			err,
		)
	}

	// Default: unknown error - return sanitized 500
	return NewInternalError(err)
}
