package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/backend"
	"catalog-admin/config"
	"catalog-admin/database"
	"catalog-admin/firebase"
	"catalog-admin/middleware"
	"catalog-admin/routes"
	"catalog-admin/sessions"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Fatal("Error loading .env file:", err)
	}

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	cfg := config.Load()

	// Catalog backend: the remote REST API when configured, otherwise the
	// embedded database with Firebase Storage for uploads.
	var catalog backend.Backend
	var db *gorm.DB
	if cfg.BackendURL != "" {
		log.Printf("Using catalog backend at %s", cfg.BackendURL)
		catalog = backend.NewRESTClient(cfg.BackendURL, cfg.BackendTimeout)
	} else {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		// Run migrations
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}

		//firebase init
		firebase.Init(cfg.Credentials)
		catalog = backend.NewLocalBackend(db, firebase.NewStorageClient(cfg.StorageBucket))
		log.Println("Using embedded catalog backend")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := sessions.NewDraftStore(cfg.DraftTTL)
	go store.RunCleanup(ctx, 5*time.Minute)

	uploadLimiter := middleware.NewRateLimiter(cfg.UploadRateLimit, time.Minute)
	go uploadLimiter.RunCleanup(ctx, 5*time.Minute)

	// Setup Gin router
	r := gin.Default()

	// Limit multipart form memory to 10MB
	r.MaxMultipartMemory = 10 << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AdminURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(r, routes.Deps{
		Store:         store,
		Backend:       catalog,
		MaxImages:     cfg.MaxImages,
		UploadLimiter: uploadLimiter,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Run server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	stop()

	// Close database connection
	if db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Error closing database connection: %v", err)
			} else {
				log.Println("Database connection closed")
			}
		}
	}

	log.Println("Server exited gracefully")
}
