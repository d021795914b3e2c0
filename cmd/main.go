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

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ueslim/cloudgames-payments/internal/api"
	"github.com/ueslim/cloudgames-payments/internal/config"
	"github.com/ueslim/cloudgames-payments/internal/eventstore"
	"github.com/ueslim/cloudgames-payments/internal/gateway"
	"github.com/ueslim/cloudgames-payments/internal/integration"
	"github.com/ueslim/cloudgames-payments/internal/messaging"
	"github.com/ueslim/cloudgames-payments/internal/replay"
	"github.com/ueslim/cloudgames-payments/internal/repository"
	"github.com/ueslim/cloudgames-payments/internal/service"
	"github.com/ueslim/cloudgames-payments/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize telemetry
	if err := telemetry.InitTelemetry("payments"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payments service")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	paymentRepo := repository.NewPaymentRepository(db)
	if err := paymentRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize payment tables", zap.Error(err))
	}

	eventRepo := eventstore.NewPostgresRepository(db)
	if err := eventRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize event store", zap.Error(err))
	}
	store := eventstore.NewStore(eventRepo, nil)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()
	bus := messaging.NewNatsBus(nc, telemetry.Logger)

	// Connect to Kafka
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers),
		Topic:    "payment.events",
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()
	audit := messaging.NewAuditPublisher(kafkaWriter, telemetry.Logger)

	// Gateway facade with explicit credentials
	facade := gateway.NewCreditCardFacade(gateway.Config{
		APIKey:        cfg.GatewayAPIKey,
		EncryptionKey: cfg.GatewayEncryptionKey,
	})

	// Payment saga
	payments := service.NewPaymentService(facade, paymentRepo, store, bus, audit, redisClient, telemetry.Logger)

	// Integration consumers
	handler := integration.NewHandler(bus, payments, telemetry.Logger)
	if err := handler.Start(); err != nil {
		telemetry.Logger.Fatal("Failed to start integration handler", zap.Error(err))
	}
	auditHandler := integration.NewAuditHandler(bus, telemetry.Logger)
	if err := auditHandler.Start(); err != nil {
		telemetry.Logger.Fatal("Failed to start audit handler", zap.Error(err))
	}

	// Setup HTTP server
	rehydrator := replay.NewRehydrator(telemetry.Logger)
	r := api.NewRouter(paymentRepo, eventRepo, rehydrator)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payments service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
