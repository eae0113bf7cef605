package api

import (
	"net/http"

	analyticsHandler "phishsim-server/internal/analytics/handler"
	authHandler "phishsim-server/internal/auth/handler"
	billingHandler "phishsim-server/internal/billing/handler"
	campaignHandler "phishsim-server/internal/campaign/handler"
	campaignEmailsHandler "phishsim-server/internal/campaignemails/handler"
	trackingHandler "phishsim-server/internal/tracking/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	router                *gin.RouterGroup
	authHandler           authHandler.Handler
	campaignHandler       campaignHandler.Handler
	campaignEmailsHandler campaignEmailsHandler.Handler
	trackingHandler       trackingHandler.Handler
	analyticsHandler      analyticsHandler.Handler
	billingHandler        billingHandler.Handler
}

func New(
	router *gin.RouterGroup,
	authHandler authHandler.Handler,
	campaignHandler campaignHandler.Handler,
	campaignEmailsHandler campaignEmailsHandler.Handler,
	trackingHandler trackingHandler.Handler,
	analyticsHandler analyticsHandler.Handler,
	billingHandler billingHandler.Handler,
) API {
	return API{
		router:                router,
		authHandler:           authHandler,
		campaignHandler:       campaignHandler,
		campaignEmailsHandler: campaignEmailsHandler,
		trackingHandler:       trackingHandler,
		analyticsHandler:      analyticsHandler,
		billingHandler:        billingHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := a.router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/signup", a.authHandler.HandleSignup)
		authGroup.POST("/login", a.authHandler.HandleLogin)
	}

	// Tracking callbacks arrive from mail clients and target browsers, no
	// auth is possible on them.
	trackGroup := apiGroup.Group("/track")
	trackGroup.GET("/:token/opened", a.trackingHandler.HandleTrackOpen)
	trackGroup.GET("/:token/clicked", a.trackingHandler.HandleTrackClick)
	trackGroup.POST("/:token/submitted", a.trackingHandler.HandleTrackSubmit)

	apiGroup.GET("/campaign/:token", a.trackingHandler.HandleLandingPage)
	apiGroup.POST("/campaign/:token/submit", a.trackingHandler.HandleTrackSubmit)

	protectedGroup := apiGroup.Group("/", a.authHandler.HandleJWTMiddleware)
	{
		protectedGroup.GET("/auth/me", a.authHandler.HandleMe)
		protectedGroup.POST("/auth/change-password", a.authHandler.HandleChangePassword)

		campaignGroup := protectedGroup.Group("/campaigns")
		campaignGroup.GET("", a.campaignHandler.HandleList)
		campaignGroup.POST("", a.campaignHandler.HandleCreate)
		campaignGroup.GET("/:id", a.campaignHandler.HandleDetails)
		campaignGroup.PUT("/:id", a.campaignHandler.HandleUpdate)
		campaignGroup.DELETE("/:id", a.campaignHandler.HandleDelete)
		campaignGroup.POST("/:id/launch", a.campaignHandler.HandleLaunch)
		campaignGroup.POST("/:id/pause", a.campaignHandler.HandlePause)
		campaignGroup.POST("/:id/resume", a.campaignHandler.HandleResume)
		campaignGroup.POST("/:id/stop", a.campaignHandler.HandleStop)
		campaignGroup.POST("/:id/targets", a.campaignHandler.HandleAddTargets)
		campaignGroup.POST("/:id/send-emails", a.campaignEmailsHandler.HandleSendEmails)
		campaignGroup.POST("/:id/resend-email/:targetId", a.campaignEmailsHandler.HandleResendEmail)
		campaignGroup.POST("/:id/cancel-emails", a.campaignEmailsHandler.HandleCancelEmails)
		campaignGroup.GET("/:id/stats", a.analyticsHandler.HandleStats)
		campaignGroup.GET("/:id/analysis", a.analyticsHandler.HandleAnalysis)

		protectedGroup.GET("/templates", a.campaignHandler.HandleListTemplates)
		protectedGroup.GET("/plans", a.billingHandler.HandleListPlans)

		paymentGroup := protectedGroup.Group("/payment")
		paymentGroup.POST("/checkout", a.billingHandler.HandleCheckout)
		paymentGroup.POST("/confirm", a.billingHandler.HandleConfirm)
		paymentGroup.GET("/status/:transactionId", a.billingHandler.HandleStatus)
		paymentGroup.POST("/cancel/:transactionId", a.billingHandler.HandleCancel)
		paymentGroup.GET("/history", a.billingHandler.HandleHistory)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
