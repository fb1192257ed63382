package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"reassignment-service/internal/config"
	"reassignment-service/internal/events"
	"reassignment-service/internal/exporter"
	"reassignment-service/internal/handlers"
	"reassignment-service/internal/importer"
	"reassignment-service/internal/jobs"
	"reassignment-service/internal/middleware"
	"reassignment-service/internal/models"
	"reassignment-service/internal/repository"
)

// @title Book Reassignment API
// @version 1.0.0
// @description Bulk import/export pipeline for the sales-account reassignment dashboard

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Check if running health check
	if len(os.Args) > 1 && os.Args[1] == "health" {
		resp, err := http.Get("http://localhost:8080/health")
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.Manager{},
		&models.Account{},
		&models.AccountRevenue{},
		&models.Seller{},
		&models.Relationship{},
		&models.OriginalRelationship{},
		&models.ManagerTeam{},
		&models.ImportLock{},
		&models.ImportAuditLog{},
		&models.SellerChatBackup{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Set database for health checks
	handlers.SetDB(db)

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	managerRepo := repository.NewManagerRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	lockRepo := repository.NewLockRepository(db)
	viewRepo := repository.NewViewRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize NATS events publisher
	publisher, err := events.NewPublisher(cfg.NATSUrl, cfg.ImportEventSubject, logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		publisher, _ = events.NewPublisher("", cfg.ImportEventSubject, logger)
	}
	defer publisher.Close()

	// Initialize the pipeline
	coordinator := importer.NewCoordinator(
		accountRepo, sellerRepo, managerRepo, relRepo,
		lockRepo, viewRepo, auditRepo, logger,
	)
	if cfg.ChunkPauseMS > 0 {
		coordinator.SetLimiter(rate.NewLimiter(rate.Every(time.Duration(cfg.ChunkPauseMS)*time.Millisecond), 1))
	}
	assembler := exporter.NewAssembler(accountRepo, sellerRepo, managerRepo, relRepo, logger)
	bookHandler := handlers.NewBookHandler(coordinator, assembler, lockRepo, auditRepo, publisher, cfg, logger)

	// Periodic derived-view refresh, standing down while an import holds the lock
	refreshJob := jobs.NewViewRefreshJob(viewRepo, lockRepo, cfg.ViewRefreshSchedule, logger)
	if err := refreshJob.Start(); err != nil {
		log.Fatal("Failed to start view refresh job:", err)
	}
	defer refreshJob.Stop()

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	v1 := router.Group("/api/v1")
	{
		book := v1.Group("/book")
		{
			book.POST("/import", bookHandler.ImportBook)
			book.GET("/import/template", bookHandler.DownloadTemplate)
			book.GET("/import/lock", bookHandler.LockStatus)
			book.GET("/import/audit", bookHandler.ListAudits)
			book.POST("/export", bookHandler.ExportBook)
			book.POST("/export/backup", bookHandler.ExportBackup)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	log.Printf("Reassignment service starting on port %s in %s mode", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
