package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/brokerdesk/admin-api/internal/audit"
	"github.com/brokerdesk/admin-api/internal/auth"
	"github.com/brokerdesk/admin-api/internal/backend"
	"github.com/brokerdesk/admin-api/internal/config"
	"github.com/brokerdesk/admin-api/internal/customer"
	"github.com/brokerdesk/admin-api/internal/database"
	"github.com/brokerdesk/admin-api/internal/deposits"
	"github.com/brokerdesk/admin-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the admin gateway with graceful shutdown support
// It wires the trading backend client, local audit store and API routes
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize local store for the audit trail
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Trading backend client, the single upstream for all business logic
	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.BackendTimeout())

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWT.Secret, cfg.TokenExpiration())
	authService.RegisterCredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)
	authHandlers := auth.NewGinHandlers(authService)

	auditRecorder := audit.NewRecorder(db)
	auditHandlers := audit.NewGinHandlers(auditRecorder)

	customerService := customer.NewService(backendClient, auditRecorder)
	customerHandlers := customer.NewGinHandlers(customerService)

	depositService := deposits.NewService(backendClient, auditRecorder)
	depositHandlers := deposits.NewGinHandlers(depositService)

	// Load the initial deposit list; the refresher retries on its own
	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.BackendTimeout())
	if err := depositService.Reconciler().Reload(startupCtx); err != nil {
		zlog.Warn().Err(err).Msg("Initial deposit list fetch failed")
	}
	startupCancel()

	// Create and start the background list refresher
	refresher := deposits.NewRefresher(depositService.Reconciler(), cfg.RefreshInterval())
	refresherCtx, refresherCancel := context.WithCancel(context.Background())
	defer refresherCancel()

	go refresher.Start(refresherCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWT.Secret, authHandlers, customerHandlers, depositHandlers, auditHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for operator authentication
// - Customer routes: Protected by JWT authentication
// - Deposit routes: Protected by JWT authentication
// - Audit routes: Protected by JWT authentication
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	customerHandlers *customer.GinHandlers,
	depositHandlers *deposits.GinHandlers,
	auditHandlers *audit.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Customer management routes
		customers := v1.Group("/customers")
		customers.Use(middleware.JWTAuth(jwtSecret))
		{
			customers.POST("", customerHandlers.CreateCustomerHandler())
			customers.GET("/:customer_id", customerHandlers.GetCustomerHandler())
			customers.PUT("/:customer_id", customerHandlers.UpdateCustomerHandler())
		}

		// Deposit request routes
		depositsGroup := v1.Group("/deposits")
		depositsGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			depositsGroup.GET("", depositHandlers.ListHandler())
			depositsGroup.POST("/refresh", depositHandlers.RefreshHandler())
			depositsGroup.POST("/selection/all", depositHandlers.ToggleSelectAllHandler())
			depositsGroup.POST("/selection/:request_id", depositHandlers.ToggleSelectHandler())
			depositsGroup.POST("/bulk", depositHandlers.BulkHandler())
			depositsGroup.POST("/:request_id/approve", depositHandlers.ApproveHandler())
			depositsGroup.POST("/:request_id/reject", depositHandlers.RejectHandler())
		}

		// Audit trail routes
		auditGroup := v1.Group("/audit")
		auditGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			auditGroup.GET("", auditHandlers.ListHandler())
		}
	}
}
