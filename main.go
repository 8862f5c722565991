package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admiral/config"
	"admiral/internal/cache"
	"admiral/internal/database"
	"admiral/internal/handlers"
	"admiral/internal/middleware"
	"admiral/internal/repository"
	"admiral/internal/services"
	"admiral/internal/yahoo"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize market data client
	marketClient := yahoo.NewClient()
	if cfg.MarketURL != "" {
		marketClient = yahoo.NewClientWithBaseURL(cfg.MarketURL)
	}

	// Initialize caches
	quoteCache := cache.NewQuoteCache(1 * time.Minute)

	// Initialize repositories
	instrumentRepo := repository.NewInstrumentRepository(db.Pool)
	quoteRepo := repository.NewQuoteRepository(db.Pool)
	transactionRepo := repository.NewTransactionRepository(db.Pool)
	positionRepo := repository.NewPositionRepository(db.Pool)

	// Initialize services
	portfolioSvc := services.NewPortfolioService(instrumentRepo, transactionRepo, positionRepo)
	pricingSvc := services.NewPricingService(positionRepo, marketClient, quoteCache)
	importSvc := services.NewImportService(instrumentRepo, quoteRepo, marketClient)

	// Initialize handlers
	portfolioHandler := handlers.NewPortfolioHandler(portfolioSvc, pricingSvc)
	instrumentHandler := handlers.NewInstrumentHandler(importSvc, pricingSvc)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Instrument routes
	router.GET("/instruments", instrumentHandler.List)
	router.POST("/instruments/import", instrumentHandler.ImportBatch)
	router.POST("/instruments/:symbol/import", instrumentHandler.Import)
	router.GET("/instruments/:symbol/history", instrumentHandler.History)

	// Portfolio routes
	router.POST("/transactions", portfolioHandler.RecordTransaction)
	router.GET("/transactions", portfolioHandler.ListTransactions)
	router.GET("/positions", portfolioHandler.ListPositions)
	router.POST("/recalculate", portfolioHandler.Recalculate)
	router.POST("/refresh", portfolioHandler.RefreshPrices)
	router.GET("/summary", portfolioHandler.Summary)
	router.POST("/sync", portfolioHandler.Sync)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
