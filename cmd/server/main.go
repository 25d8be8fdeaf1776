package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fieldserve/parts-service/config"
	"github.com/fieldserve/parts-service/internal/api"
	"github.com/fieldserve/parts-service/internal/costing"
	"github.com/fieldserve/parts-service/pkg/broker"
	"github.com/fieldserve/parts-service/pkg/lock"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/fieldserve/parts-service/pkg/postgres"

	approvalRepoPkg "github.com/fieldserve/parts-service/internal/approval/repository"
	approvalUCPkg "github.com/fieldserve/parts-service/internal/approval/usecase"

	costingH "github.com/fieldserve/parts-service/internal/costing/handler"
	costingRepoPkg "github.com/fieldserve/parts-service/internal/costing/repository"
	costingUCPkg "github.com/fieldserve/parts-service/internal/costing/usecase"

	invH "github.com/fieldserve/parts-service/internal/inventory/handler"
	invListenerPkg "github.com/fieldserve/parts-service/internal/inventory/listener"
	invRepoPkg "github.com/fieldserve/parts-service/internal/inventory/repository"
	invUCPkg "github.com/fieldserve/parts-service/internal/inventory/usecase"

	limitsRepoPkg "github.com/fieldserve/parts-service/internal/limits/repository"
	limitsUCPkg "github.com/fieldserve/parts-service/internal/limits/usecase"

	partRepoPkg "github.com/fieldserve/parts-service/internal/part/repository"

	reqH "github.com/fieldserve/parts-service/internal/request/handler"
	reqRepoPkg "github.com/fieldserve/parts-service/internal/request/repository"
	reqUCPkg "github.com/fieldserve/parts-service/internal/request/usecase"

	resvRepoPkg "github.com/fieldserve/parts-service/internal/reservation/repository"
	resvUCPkg "github.com/fieldserve/parts-service/internal/reservation/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis and the distributed stock locker
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	stockLocker := lock.NewRedisLocker(redisClient)

	// 5. Initialize Kafka producer and consumer
	eventProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EventsTopic,
	})
	defer eventProducer.Close()

	receivingConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ReceivingTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer receivingConsumer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("events_topic", cfg.Kafka.EventsTopic),
		zap.String("receiving_topic", cfg.Kafka.ReceivingTopic),
	)

	// 6. Initialize Repositories
	partRepo := partRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	resvRepo := resvRepoPkg.NewPGRepository(db)
	limitsRepo := limitsRepoPkg.NewPGRepository(db)
	approvalRepo := approvalRepoPkg.NewPGRepository(db)
	reqRepo := reqRepoPkg.NewPGRepository(db)
	costingRepo := costingRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	invUC := invUCPkg.NewInventoryUseCase(invRepo, stockLocker, appLogger, invUCPkg.Options{
		LockTTL:       cfg.Engine.LockTTL,
		RetryAttempts: cfg.Engine.RetryMaxAttempts,
		RetryBackoff:  cfg.Engine.RetryBackoff,
	})
	resvUC := resvUCPkg.NewReservationUseCase(resvRepo, invUC, appLogger, cfg.Engine.ReservationTTL)
	limitsUC := limitsUCPkg.NewLimitsUseCase(limitsRepo, appLogger)
	approvalUC := approvalUCPkg.NewApprovalUseCase(approvalRepo, appLogger)
	reqUC := reqUCPkg.NewRequestUseCase(reqRepo, partRepo, invUC, resvUC, limitsUC, approvalUC, eventProducer, appLogger)
	costingUC := costingUCPkg.NewCostingUseCase(costingRepo, reqRepo, costing.Rates{
		LaborRatePerHour:   decimal.NewFromFloat(cfg.Engine.LaborRatePerHour),
		OverheadPercent:    decimal.NewFromFloat(cfg.Engine.OverheadPercent),
		TaxPercent:         decimal.NewFromFloat(cfg.Engine.TaxPercent),
		LaborMarkupPercent: decimal.NewFromFloat(cfg.Engine.LaborMarkupPercent),
	}, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Start the stock-received listener
	invListener := invListenerPkg.NewInventoryListener(receivingConsumer, invUC, appLogger)
	go invListener.Start(ctx)

	// 9. Start the reservation expiry sweeper
	go func() {
		ticker := time.NewTicker(cfg.Engine.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				released, err := resvUC.ReleaseExpired(ctx, now)
				if err != nil {
					appLogger.Error("Reservation sweep failed", zap.Error(err))
					continue
				}
				if released > 0 {
					appLogger.Info("Released expired reservations", zap.Int("count", released))
				}
			}
		}
	}()

	// 10. Initialize Handlers and Router
	validate := validator.New()
	reqHandler := reqH.NewRequestHandler(reqUC, validate, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	costingHandler := costingH.NewCostingHandler(costingUC, appLogger)

	router := api.NewRouter(reqHandler, invHandler, costingHandler)

	// 11. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
