package handler

import (
	"net/http"

	"phishsim-server/internal/apierrors"
	authHandler "phishsim-server/internal/auth/handler"
	"phishsim-server/internal/billing/processor"
	"phishsim-server/internal/observability"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	billingProcessor processor.BillingProcessor
	logger           *observability.Logger
}

func New(billingProcessor processor.BillingProcessor, logger *observability.Logger) Handler {
	return Handler{billingProcessor: billingProcessor, logger: logger}
}

func (h *Handler) HandleListPlans(c *gin.Context) {
	ctx := c.Request.Context()

	plans, err := h.billingProcessor.ListPlans(ctx)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type CheckoutRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

func (h *Handler) HandleCheckout(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	checkout, err := h.billingProcessor.InitiateCheckout(ctx, companyID, req.PlanID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"checkout": checkout})
}

type ConfirmRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

func (h *Handler) HandleConfirm(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	payment, err := h.billingProcessor.ConfirmPayment(ctx, companyID, req.TransactionID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "payment confirmed",
		"payment": payment,
	})
}

func (h *Handler) HandleStatus(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	payment, err := h.billingProcessor.PaymentStatus(ctx, companyID, c.Param("transactionId"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

func (h *Handler) HandleCancel(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	payment, err := h.billingProcessor.CancelPayment(ctx, companyID, c.Param("transactionId"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "payment cancelled",
		"payment": payment,
	})
}

func (h *Handler) HandleHistory(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	history, err := h.billingProcessor.PaymentHistory(ctx, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func companyScope(c *gin.Context) (int64, bool) {
	companyID, ok := authHandler.CompanyIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return companyID, true
}
