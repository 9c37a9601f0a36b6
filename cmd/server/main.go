package main

import (
	"context"
	"errors"
	"law_case_engine/config"
	"law_case_engine/db"
	"law_case_engine/handlers"
	"law_case_engine/middleware"
	"law_case_engine/models"
	"law_case_engine/services"
	"law_case_engine/services/jobs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(db.Options{
		PostgresURL: cfg.DatabaseURL,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		SQLitePath:  cfg.DBPath,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(database, models.All()...); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Case engine
	allocator := services.NewSequenceAllocator(database, cfg.AllocationMaxAttempts, cfg.AllocationTimeout)
	merger := services.NewTimelineMerger(services.NewCaseStore(database), cfg.TimelineTimeout)
	caseService := services.NewCaseService(database, allocator, merger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{
			echo.HeaderContentType,
			middleware.HeaderOwnerUID,
			middleware.HeaderOrganizationID,
			middleware.HeaderUserID,
		},
	}))

	limiter := middleware.NewCaseRateLimiter(cfg.RateLimitPerMinute)
	defer limiter.Stop()

	handlers.RegisterRoutes(e, database, caseService, limiter)

	// Start background jobs
	scheduler, err := jobs.StartScheduler(database, cfg)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARNING] Server shutdown: %v", err)
	}
}
