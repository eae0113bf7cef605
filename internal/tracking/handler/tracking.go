package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/tracking/processor"

	"github.com/gin-gonic/gin"
)

// 1x1 transparent GIF served as the open-tracking pixel.
var trackingPixel, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

type Handler struct {
	trackingProcessor processor.TrackingProcessor
	notFoundURL       string
	logger            *observability.Logger
}

func New(trackingProcessor processor.TrackingProcessor, appBaseURL string, logger *observability.Logger) Handler {
	return Handler{
		trackingProcessor: trackingProcessor,
		notFoundURL:       strings.TrimRight(appBaseURL, "/") + "/404",
		logger:            logger,
	}
}

// HandleTrackOpen serves the tracking pixel. Mail clients fetch it when
// images load, so failures degrade to an empty 204 and never surface an
// error body.
func (h *Handler) HandleTrackOpen(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.trackingProcessor.TrackOpen(ctx, c.Param("token")); err != nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/gif", trackingPixel)
}

// HandleTrackClick records the click and forwards the browser to the
// simulation landing page. Invalid tokens redirect to the 404 page.
func (h *Handler) HandleTrackClick(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Param("token")
	if err := h.trackingProcessor.TrackClick(ctx, token); err != nil {
		c.Redirect(http.StatusFound, h.notFoundURL)
		return
	}

	c.Redirect(http.StatusFound, "/api/campaign/"+token)
}

// HandleLandingPage renders the simulation page an email link points at.
func (h *Handler) HandleLandingPage(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := h.trackingProcessor.RenderLandingPage(ctx, c.Param("token"))
	if err != nil {
		h.logger.InfoWithError(ctx, "failed to render landing page", err)
		c.Redirect(http.StatusFound, h.notFoundURL)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.HTMLContent))
}

// SubmitRequest is the landing page form payload. The password field is
// bound only so validation mirrors the real form; its value is discarded.
type SubmitRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// HandleTrackSubmit records a form submission. No submitted field is ever
// persisted.
func (h *Handler) HandleTrackSubmit(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid submission payload", "success": false})
		return
	}

	err := h.trackingProcessor.TrackSubmit(ctx, c.Param("token"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message": "Thank you for your submission. This was a phishing simulation.",
			"success": true,
			"note":    "no credentials were collected or stored",
		})
	case errors.Is(err, processor.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid token", "success": false})
	case errors.Is(err, processor.ErrTargetNotFound), errors.Is(err, processor.ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "campaign or target not found", "success": false})
	default:
		h.logger.Error(ctx, "failed to track form submission", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "submission tracking failed", "success": false})
	}
}
