package handler

import (
	"net/http"
	"strconv"

	"phishsim-server/internal/analytics/processor"
	"phishsim-server/internal/apierrors"
	authHandler "phishsim-server/internal/auth/handler"
	"phishsim-server/internal/observability"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	analyticsProcessor processor.AnalyticsProcessor
	logger             *observability.Logger
}

func New(analyticsProcessor processor.AnalyticsProcessor, logger *observability.Logger) Handler {
	return Handler{analyticsProcessor: analyticsProcessor, logger: logger}
}

func (h *Handler) HandleStats(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := requestScope(c)
	if !ok {
		return
	}

	campaign, stats, err := h.analyticsProcessor.CampaignStats(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign": campaign,
		"stats":    stats,
	})
}

func (h *Handler) HandleAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := requestScope(c)
	if !ok {
		return
	}

	analysis, err := h.analyticsProcessor.Analyze(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

func requestScope(c *gin.Context) (companyID, campaignID int64, ok bool) {
	companyID, ok = authHandler.CompanyIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}

	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign id must be numeric"})
		return 0, 0, false
	}

	return companyID, campaignID, true
}
