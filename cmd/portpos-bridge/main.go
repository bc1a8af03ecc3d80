package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portpos-bridge/internal/app/checkout"
	"portpos-bridge/internal/config"
	"portpos-bridge/internal/events"
	callbacks_http "portpos-bridge/internal/handler/http/callbacks"
	checkout_http "portpos-bridge/internal/handler/http/checkout"
	"portpos-bridge/internal/infrastructure/database"
	"portpos-bridge/internal/infrastructure/kafka"
	"portpos-bridge/internal/portpos"
	postgres_order_repo "portpos-bridge/internal/repository/order_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("PortPos bridge starting...",
		zap.Bool("sandbox", cfg.Sandbox),
		zap.String("integration_method", cfg.IntegrationMethod))

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New("file://migrations", migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaURL != "" {
		kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), cfg.KafkaPaymentStatusTopic, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				appLogger.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()
		publisher = events.NewKafkaPublisher(kafkaProducer, appLogger)
		appLogger.Info("Payment status events enabled", zap.String("topic", cfg.KafkaPaymentStatusTopic))
	} else {
		appLogger.Info("No Kafka broker configured, payment status events disabled.")
	}

	orderRepository := postgres_order_repo.NewOrderRepository(db, appLogger)

	gatewayClient := portpos.NewClient(portpos.Config{
		AppKey:    cfg.AppKey,
		SecretKey: cfg.SecretKey,
		Sandbox:   cfg.Sandbox,
	}, appLogger)

	checkoutService := checkout.NewCheckoutService(cfg, orderRepository, gatewayClient, publisher, appLogger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	checkoutOrigin := cfg.CheckoutURL
	if u, err := url.Parse(cfg.CheckoutURL); err == nil && u.Scheme != "" {
		checkoutOrigin = u.Scheme + "://" + u.Host
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{checkoutOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("PortPos bridge is healthy!"))
	})

	checkout_http.RegisterRoutes(r, checkoutService, appLogger)
	callbacks_http.RegisterRoutes(r, checkoutService, cfg.CheckoutURL, cfg.SuccessURL, appLogger)

	serverAddr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("PortPos bridge started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down PortPos bridge...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("PortPos bridge stopped.")
}
