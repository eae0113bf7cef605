package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"phishsim-server/internal/apierrors"
	authHandler "phishsim-server/internal/auth/handler"
	"phishsim-server/internal/campaign/processor"
	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	campaignProcessor processor.CampaignProcessor
	logger            *observability.Logger
}

func New(campaignProcessor processor.CampaignProcessor, logger *observability.Logger) Handler {
	return Handler{campaignProcessor: campaignProcessor, logger: logger}
}

type CreateCampaignRequest struct {
	Type      string    `json:"type" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

type UpdateCampaignRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type AddTargetsRequest struct {
	Targets []TargetRequest `json:"targets" binding:"required,min=1,dive"`
}

type TargetRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) HandleCreate(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := authHandler.CompanyIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is missing or invalid"})
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	campaign, err := h.campaignProcessor.Create(ctx, processor.CreateParams{
		CompanyID: companyID,
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

func (h *Handler) HandleList(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, ok := authHandler.CompanyIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is missing or invalid"})
		return
	}

	campaigns, err := h.campaignProcessor.List(ctx, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (h *Handler) HandleDetails(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := h.requestScope(c)
	if !ok {
		return
	}

	details, err := h.campaignProcessor.GetDetails(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) HandleUpdate(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	campaign, err := h.campaignProcessor.Update(ctx, campaignID, companyID, processor.UpdateParams{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

func (h *Handler) HandleDelete(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := h.requestScope(c)
	if !ok {
		return
	}

	if err := h.campaignProcessor.Delete(ctx, campaignID, companyID); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

func (h *Handler) HandleLaunch(c *gin.Context) {
	h.handleTransition(c, h.campaignProcessor.Launch)
}

func (h *Handler) HandlePause(c *gin.Context) {
	h.handleTransition(c, h.campaignProcessor.Pause)
}

func (h *Handler) HandleResume(c *gin.Context) {
	h.handleTransition(c, h.campaignProcessor.Resume)
}

func (h *Handler) HandleStop(c *gin.Context) {
	h.handleTransition(c, h.campaignProcessor.Stop)
}

func (h *Handler) HandleAddTargets(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req AddTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	targets := make([]processor.TargetParams, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, processor.TargetParams{Name: t.Name, Email: t.Email})
	}

	created, err := h.campaignProcessor.AddTargets(ctx, campaignID, companyID, targets)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"targets":       created,
		"targets_added": len(created),
	})
}

func (h *Handler) HandleListTemplates(c *gin.Context) {
	ctx := c.Request.Context()

	templates, err := h.campaignProcessor.ListTemplates(ctx)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) handleTransition(c *gin.Context, transition func(ctx context.Context, campaignID, companyID int64) (store.Campaign, error)) {
	ctx := c.Request.Context()

	companyID, campaignID, ok := h.requestScope(c)
	if !ok {
		return
	}

	campaign, err := transition(ctx, campaignID, companyID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// requestScope extracts the authenticated company id and the campaign id
// path parameter, responding with the right error when either is missing.
func (h *Handler) requestScope(c *gin.Context) (companyID, campaignID int64, ok bool) {
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
