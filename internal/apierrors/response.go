package apierrors

import (
	"net/http"

	"phishsim-server/internal/observability"

	"github.com/gin-gonic/gin"
)

var logger = observability.NewLogger()

// ErrorResponse is the JSON structure returned to API clients
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondWithError maps the error and writes the JSON response. Internal
// causes are logged but never exposed to the client.
func RespondWithError(c *gin.Context, err error) {
	apiErr := MapError(err)
	if apiErr == nil {
		return
	}

	ctx := c.Request.Context()
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "status_code", Value: apiErr.Status},
		observability.Field{Key: "error_code", Value: apiErr.Code},
		observability.Field{Key: "error_message", Value: apiErr.Message},
	)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error(ctx, "API error response", err)
	} else {
		logger.Info(ctx, "API error response")
	}

	c.JSON(apiErr.Status, ErrorResponse{
		Error: apiErr.Message,
		Code:  apiErr.Code,
	})
}
