package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sellerstat/sellerstat_api/internal/cache"
	"github.com/sellerstat/sellerstat_api/internal/config"
	"github.com/sellerstat/sellerstat_api/internal/database"
	"github.com/sellerstat/sellerstat_api/internal/handler"
	"github.com/sellerstat/sellerstat_api/internal/middleware"
	"github.com/sellerstat/sellerstat_api/internal/repository"
	"github.com/sellerstat/sellerstat_api/internal/service"
)

// main is the application entrypoint for the SellerStat API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting sellerstat api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis (login throttling)
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	loginLimiter := cache.NewLoginLimiter(redisClient)

	// 4. Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 5. Initialize services
	categorySvc := service.NewCategoryService(categoryRepo)
	aggregationSvc := service.NewAggregationService(productRepo)
	importSvc := service.NewImportService(db)
	authSvc := service.NewAuthService(userRepo, cfg.JWT)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db),
		Category: handler.NewCategoryHandler(categorySvc),
		Product:  handler.NewProductHandler(aggregationSvc),
		Auth:     handler.NewAuthHandler(authSvc, loginLimiter),
		Admin:    handler.NewAdminHandler(importSvc, authSvc),
	}

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(authSvc)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 9. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 11. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMw *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public category tree
	router.GET("/v1/categories", handlers.Category.GetTree)

	// Account lifecycle
	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", jwtMw.Handle(), handlers.Auth.Logout)
		auth.GET("/profile", jwtMw.Handle(), jwtMw.RequireDevice(), handlers.Auth.Profile)
	}

	// Aggregated report (device-bound)
	products := router.Group("/v1")
	products.Use(jwtMw.Handle(), jwtMw.RequireDevice())
	{
		products.GET("/products", handlers.Product.GetAggregatedProducts)
		products.GET("/products.xlsx", handlers.Product.ExportAggregatedProducts)
	}

	// Operator actions
	admin := router.Group("/v1")
	admin.Use(jwtMw.Handle(), jwtMw.RequireStaff())
	{
		admin.POST("/categories", handlers.Category.CreateCategory)
		admin.PUT("/categories/:id", handlers.Category.UpdateCategory)
		admin.DELETE("/categories/:id", handlers.Category.DeleteCategory)

		admin.POST("/admin/import", handlers.Admin.ImportCatalog)
		admin.POST("/admin/users/:id/reset-device", handlers.Admin.ResetDevice)
		admin.POST("/admin/users/:id/payment-status", handlers.Admin.SetPaymentStatus)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
