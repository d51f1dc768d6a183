package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/handler"
	"github.com/solventa/solventa-backend/internal/middleware"
	"github.com/solventa/solventa-backend/internal/repository/postgres"
	"github.com/solventa/solventa-backend/internal/service"
	"github.com/solventa/solventa-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	txManager := postgres.NewTxManager(pool)
	leadRepo := postgres.NewLeadRepository(pool)
	loantypeRepo := postgres.NewLoantypeRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewLoanPaymentRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	receiptRepo := postgres.NewLeadPaymentReceivedRepository(pool)
	falcoRepo := postgres.NewFalcoRepository(pool)

	// Initialize services
	metricsService := service.NewLoanMetricsService(loanRepo, loantypeRepo, paymentRepo)
	loanService := service.NewLoanService(txManager, loanRepo, loantypeRepo, leadRepo, accountRepo, transactionRepo, metricsService)
	paymentService := service.NewPaymentService(paymentRepo, loanRepo, loantypeRepo, leadRepo, accountRepo, transactionRepo, metricsService)
	receiptService := service.NewReceiptService(receiptRepo, leadRepo, accountRepo, transactionRepo, paymentService)
	falcoService := service.NewFalcoService(falcoRepo, receiptRepo, leadRepo, accountRepo, transactionRepo)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo)
	accountService := service.NewAccountService(accountRepo, transactionRepo)

	// Initialize WebSocket hub and wire real-time events
	hub := websocket.NewHub()
	loanService.SetEventPublisher(hub)
	paymentService.SetEventPublisher(hub)
	receiptService.SetEventPublisher(hub)
	falcoService.SetEventPublisher(hub)
	transactionService.SetEventPublisher(hub)

	// Initialize handlers
	loanHandler := handler.NewLoanHandler(loanService, metricsService)
	paymentHandler := handler.NewLoanPaymentHandler(paymentService)
	receiptHandler := handler.NewReceiptHandler(receiptService, falcoService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	accountHandler := handler.NewAccountHandler(accountService)
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Rate limiting middleware
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, loanHandler, paymentHandler, receiptHandler, transactionHandler, accountHandler, wsHandler)

	// Nightly reconciliation of loan snapshot fields
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.MetricsCronSpec, func() {
		count, err := metricsService.RecomputeAll()
		if err != nil {
			log.Error().Err(err).Msg("Scheduled loan metrics recompute failed")
			return
		}
		log.Info().Int("recomputed", count).Msg("Scheduled loan metrics recompute finished")
	}); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.MetricsCronSpec).Msg("Invalid metrics cron expression")
	}
	scheduler.Start()

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
