package handler

import (
	"net/http"
	"strconv"

	"phishsim-server/internal/apierrors"
	authHandler "phishsim-server/internal/auth/handler"
	"phishsim-server/internal/campaignemails/processor"
	"phishsim-server/internal/observability"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	dispatchProcessor processor.DispatchProcessor
	logger            *observability.Logger
}

func New(dispatchProcessor processor.DispatchProcessor, logger *observability.Logger) Handler {
	return Handler{dispatchProcessor: dispatchProcessor, logger: logger}
}

func (h *Handler) HandleSendEmails(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := requestScope(c)
	if !ok {
		return
	}

	result, err := h.dispatchProcessor.SendCampaignEmails(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "campaign emails queued",
		"results": result,
	})
}

func (h *Handler) HandleResendEmail(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := requestScope(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseInt(c.Param("targetId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target id must be numeric"})
		return
	}

	if err := h.dispatchProcessor.ResendEmail(ctx, campaignID, companyID, targetID); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email queued for resending"})
}

func (h *Handler) HandleCancelEmails(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := requestScope(c)
	if !ok {
		return
	}

	campaign, err := h.dispatchProcessor.CancelCampaignEmails(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "campaign emails cancelled",
		"campaign": campaign,
	})
}

func requestScope(c *gin.Context) (companyID, campaignID int64, ok bool) {
	companyID, found := authHandler.CompanyIDFromContext(c)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is missing or invalid"})
		return 0, 0, false
	}

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign id must be numeric"})
		return 0, 0, false
	}

	return companyID, campaignID, true
}
