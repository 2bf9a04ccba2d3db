// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"helloaca-service/internal/ai"
	"helloaca-service/internal/config"
	"helloaca-service/internal/db"
	analysisHandler "helloaca-service/internal/handlers/analysis"
	chatHandler "helloaca-service/internal/handlers/chat"
	contractHandler "helloaca-service/internal/handlers/contract"
	healthHandler "helloaca-service/internal/handlers/health"
	paymentHandler "helloaca-service/internal/handlers/payment"
	userHandler "helloaca-service/internal/handlers/user"
	wsHandler "helloaca-service/internal/handlers/websocket"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/payments"
	"helloaca-service/internal/pkg/auth"
	"helloaca-service/internal/pkg/cache"
	"helloaca-service/internal/pkg/ratelimit"
	"helloaca-service/internal/repository/postgres"
	analysissvc "helloaca-service/internal/service/analysis"
	chatsvc "helloaca-service/internal/service/chat"
	contractsvc "helloaca-service/internal/service/contract"
	paymentsvc "helloaca-service/internal/service/payment"
	subsvc "helloaca-service/internal/service/subscription"
	usersvc "helloaca-service/internal/service/user"
	"helloaca-service/internal/storage"
	"helloaca-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server
	cancel context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New()}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// ----- Identity verifier -----
	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   s.cfg.Auth.JWTSecret,
		Issuer:   s.cfg.Auth.Issuer,
		Audience: s.cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to build token verifier: %w", err)
	}

	// ----- Blob store -----
	blobs, err := storage.NewClient(ctx, s.cfg.Storage.Bucket, s.cfg.Storage.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to build blob store: %w", err)
	}

	// ----- Model client -----
	model, err := ai.NewClient(ai.Config{
		APIKey:      s.cfg.AI.APIKey,
		BaseURL:     s.cfg.AI.BaseURL,
		Model:       s.cfg.AI.Model,
		MaxTokens:   s.cfg.AI.MaxTokens,
		Temperature: s.cfg.AI.Temperature,
		Timeout:     s.cfg.AI.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to build model client: %w", err)
	}

	// ----- Payments gateway -----
	gateway := payments.NewClient(payments.Config{
		SecretKey:   s.cfg.Paystack.SecretKey,
		BaseURL:     s.cfg.Paystack.BaseURL,
		CallbackURL: s.cfg.Paystack.CallbackURL,
	})

	// ----- Shared infrastructure -----
	appCache := cache.New(redisClient)
	limiter := ratelimit.New(redisClient)
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	subRepo := postgres.NewSubscriptionRepository(pool)
	contractRepo := postgres.NewContractRepository(pool)
	analysisRepo := postgres.NewAnalysisRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	eventRepo := postgres.NewPaymentEventRepository(pool)

	// ----- Services -----
	subService := subsvc.NewService(subRepo, contractRepo, analysisRepo, appCache, s.cfg.TrialAnalysisLimit, logger)
	userService := usersvc.NewService(userRepo)
	contractService := contractsvc.NewService(contractRepo, subService, blobs, appCache, s.cfg.TrialAnalysisLimit, logger)
	analysisService := analysissvc.NewService(contractRepo, analysisRepo, subService, model, hub, appCache, logger)
	chatService := chatsvc.NewService(chatRepo, contractRepo, model)
	paymentService := paymentsvc.NewService(subRepo, eventRepo, gateway, subService, paymentsvc.Config{
		WebhookSecret: s.cfg.Paystack.WebhookSecret,
		Production:    s.cfg.IsProduction(),
	}, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		User:           userHandler.NewUserHandler(userService, subService),
		Contract:       contractHandler.NewContractHandler(contractService),
		Analysis:       analysisHandler.NewAnalysisHandler(analysisService),
		Chat:           chatHandler.NewChatHandler(chatService),
		Payment:        paymentHandler.NewPaymentHandler(paymentService),
		Health:         healthHandler.NewHealthHandler(pool, redisClient),
		WS:             wsHandler.NewWebSocketHandler(hub, s.cfg.AppURL, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(verifier),
		RateLimit:      middleware.NewRateLimitMiddleware(limiter),
	}

	s.engine.Use(middleware.Recovery(logger))
	s.engine.Use(middleware.Logging(logger))
	s.engine.Use(middleware.CORS(s.cfg.AppURL))

	SetupRouter(s.engine, handlers)

	s.http = &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.engine}
	logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.logger != nil {
		defer s.logger.Sync()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
