// Package main provides the main entry point for the Kagiban license administration service
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hologize/kagiban/app/handlers"
	"github.com/hologize/kagiban/app/middleware"
	"github.com/hologize/kagiban/app/router"
	"github.com/hologize/kagiban/app/services"
	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/hologize/kagiban/config"
	"github.com/hologize/kagiban/keygen"
	"github.com/hologize/kagiban/repository"
	"github.com/hologize/kagiban/repository/rawsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application bundles everything main needs to run and stop the service
type Application struct {
	router router.Router
	config *config.ProductionConfig
}

// stores groups the persistence layer behind its interfaces so the rest of
// the wiring is identical for both backends.
type stores struct {
	adminRepo        repository.AdminRepository
	licenseRepo      repository.LicenseRepository
	notificationRepo repository.NotificationRepository
	txManager        repository.TxManager
}

func main() {
	log.Println("Starting Kagiban application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a rotated file, or both.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// initializeApplication wires repositories, services, flows, and handlers
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	st, err := initializeStores(cfg)
	if err != nil {
		return nil, err
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	notificationService := services.NewNotificationService(st.notificationRepo)
	keyGenerator := keygen.New()

	// Initialize flows
	authFlow := businessflow.NewAuthFlow(st.adminRepo, tokenService)
	licenseFlow := businessflow.NewLicenseFlow(st.licenseRepo, keyGenerator, notificationService, st.txManager)
	adminFlow := businessflow.NewAdminManagementFlow(st.adminRepo, st.licenseRepo, keyGenerator, notificationService, st.txManager)

	// Initialize handlers and middleware
	authHandler := handlers.NewAuthHandler(authFlow)
	licenseHandler := handlers.NewLicenseHandler(licenseFlow)
	adminHandler := handlers.NewAdminManagementHandler(adminFlow)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	r := router.NewFiberRouter(authHandler, licenseHandler, adminHandler, authMiddleware, cfg.Security.AllowedOrigins)

	return &Application{
		router: r,
		config: cfg,
	}, nil
}

// initializeStores builds the persistence layer for the configured backend.
func initializeStores(cfg *config.ProductionConfig) (*stores, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendSQL:
		db, err := initializeSQLDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Println("Using raw SQL store backend")
		return &stores{
			adminRepo:        rawsql.NewAdminStore(db),
			licenseRepo:      rawsql.NewLicenseStore(db),
			notificationRepo: rawsql.NewNotificationStore(db),
			txManager:        rawsql.NewTxManager(db),
		}, nil
	default:
		db, err := initializeGormDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Println("Using GORM store backend")
		return &stores{
			adminRepo:        repository.NewAdminRepository(db),
			licenseRepo:      repository.NewLicenseRepository(db),
			notificationRepo: repository.NewNotificationRepository(db),
			txManager:        repository.NewGormTxManager(db),
		}, nil
	}
}

func buildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// initializeGormDatabase opens a GORM connection with connection pooling
func initializeGormDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	configurePool(sqlDB, cfg)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

// initializeSQLDatabase opens a plain sqlx connection with connection pooling
func initializeSQLDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	configurePool(db.DB, cfg)

	log.Println("Database connection established successfully")
	return db, nil
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
