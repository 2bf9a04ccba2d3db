// internal/app/router.go
package app

import (
	analysisHandler "helloaca-service/internal/handlers/analysis"
	chatHandler "helloaca-service/internal/handlers/chat"
	contractHandler "helloaca-service/internal/handlers/contract"
	healthHandler "helloaca-service/internal/handlers/health"
	paymentHandler "helloaca-service/internal/handlers/payment"
	userHandler "helloaca-service/internal/handlers/user"
	wsHandler "helloaca-service/internal/handlers/websocket"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User           *userHandler.UserHandler
	Contract       *contractHandler.ContractHandler
	Analysis       *analysisHandler.AnalysisHandler
	Chat           *chatHandler.ChatHandler
	Payment        *paymentHandler.PaymentHandler
	Health         *healthHandler.HealthHandler
	WS             *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimit      *middleware.RateLimitMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")
	api.Use(h.RateLimit.Limit(ratelimit.ClassGeneral))

	// ==================== Public ====================
	api.GET("/health", h.Health.Check)
	api.POST("/payments/webhook", h.Payment.Webhook)

	// ==================== WebSocket ====================
	r.GET("/ws", h.AuthMiddleware.Auth(), h.WS.Connect)

	// ==================== User ====================
	user := api.Group("/user")
	user.Use(h.AuthMiddleware.Auth())
	{
		user.GET("/profile", h.User.GetProfile)
		user.PATCH("/profile", h.User.UpdateProfile)
		user.GET("/subscription", h.User.GetSubscription)
	}

	// ==================== Contracts ====================
	contracts := api.Group("/contracts")
	contracts.Use(h.AuthMiddleware.Auth())
	{
		contracts.POST("/upload", h.RateLimit.Limit(ratelimit.ClassUpload), h.Contract.Upload)
		contracts.GET("", h.Contract.List)
		contracts.GET("/:id", h.Contract.Get)
		contracts.PATCH("/:id", h.Contract.Update)
		contracts.DELETE("/:id", h.Contract.Delete)
		contracts.GET("/:id/analysis", h.Analysis.GetByContract)
		contracts.GET("/:id/chat", h.Chat.History)
		contracts.POST("/:id/chat", h.Chat.Send)
	}

	// ==================== Analysis ====================
	analysis := api.Group("/analysis")
	analysis.Use(h.AuthMiddleware.Auth())
	{
		analysis.POST("/analyze", h.RateLimit.Limit(ratelimit.ClassAnalysis), h.Analysis.Analyze)
		analysis.GET("/:id", h.Analysis.Get)
	}

	// ==================== Payments ====================
	payments := api.Group("/payments")
	payments.Use(h.AuthMiddleware.Auth())
	{
		payments.POST("/subscribe", h.Payment.Subscribe)
	}
}
