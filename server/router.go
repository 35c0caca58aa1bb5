package server

import (
	"time"

	httpHandler "trackpub/interfaces/http"
	"trackpub/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	trackHandler httpHandler.ITrackHandler,
	accountHandler httpHandler.IAccountHandler,
	webhookHandler httpHandler.IWebhookHandler,
	healthHandler httpHandler.IHealthHandler,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public surface: provider callbacks and probes carry no bearer token.
	router.GET("/healthz", healthHandler.Healthz)
	router.POST("/webhooks/:provider", webhookHandler.Receive)
	router.GET("/auth/youtube", accountHandler.GetAuthURL)
	router.GET("/auth/youtube/callback", accountHandler.HandleCallback)

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	api.GET("/health", healthHandler.Snapshot)
	api.GET("/health/history", healthHandler.History)

	tracks := api.Group("/tracks")
	{
		tracks.POST("", trackHandler.Create)
		tracks.GET("", trackHandler.List)
		tracks.GET("/stream", trackHandler.Stream)
		tracks.POST("/publish-all", trackHandler.PublishAll)
		tracks.GET("/:trackId", trackHandler.Get)
		tracks.PATCH("/:trackId", trackHandler.Update)
		tracks.POST("/:trackId/process", trackHandler.Process)
		tracks.POST("/:trackId/publish", trackHandler.Publish)
		tracks.POST("/:trackId/stop", trackHandler.Stop)
		tracks.POST("/:trackId/reset-publish", trackHandler.ResetPublish)
	}

	accounts := api.Group("/accounts")
	{
		accounts.GET("", accountHandler.List)
		accounts.POST("", accountHandler.ConnectManual)
		accounts.GET("/status", accountHandler.Status)
		accounts.POST("/:accountId/activate", accountHandler.Activate)
	}

	api.GET("/webhooks/receipts", webhookHandler.ListReceipts)

	return router
}
