package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	bookSlotsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/book_slots"
	changeSlotsStatusHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/change_slots_status"
	getSlotHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_slot"
	getSurgerySlotsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_surgery_slots"
	listSlotsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/list_slots"
	releaseSlotsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/release_slots"
	updateSlotHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/update_slot"
	"github.com/m04kA/SMC-ScheduleService/internal/api/middleware"
	"github.com/m04kA/SMC-ScheduleService/internal/api/rpc"
	"github.com/m04kA/SMC-ScheduleService/internal/config"
	"github.com/m04kA/SMC-ScheduleService/internal/infra/storage/migrations"
	slotRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/slot"
	slotsService "github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	bookSlotsUC "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
	"github.com/m04kA/SMC-ScheduleService/pkg/metrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/migrator"
	"github.com/m04kA/SMC-ScheduleService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.NewWithFormat(cfg.Logs.File, cfg.Logs.Level, cfg.Logs.Format)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ScheduleService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	if cfg.Migrations.Enabled {
		m, err := migrator.New(db, migrations.FS, migrations.Dir, log)
		if err != nil {
			log.Fatal("Failed to init migrator: %v", err)
		}
		if err := m.Up(context.Background()); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
	}

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	// Инициализируем репозиторий и transaction manager
	slotRepository := slotRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(
		wrappedDB,
		txmanager.WithTimeout(time.Duration(cfg.Database.TxTimeoutSeconds)*time.Second),
	)

	// Инициализируем use cases и сервисы
	bookSlotsUseCase := bookSlotsUC.NewUseCase(slotRepository, txMgr, metricsCollector, log)
	slotsSvc := slotsService.NewService(slotRepository, txMgr, metricsCollector, log)

	// Инициализируем handlers
	bookSlots := bookSlotsHandler.NewHandler(bookSlotsUseCase, log)
	listSlots := listSlotsHandler.NewHandler(slotsSvc, log)
	getSlot := getSlotHandler.NewHandler(slotsSvc, log)
	updateSlot := updateSlotHandler.NewHandler(slotsSvc, log)
	getSurgerySlots := getSurgerySlotsHandler.NewHandler(slotsSvc, log)
	releaseSlots := releaseSlotsHandler.NewHandler(slotsSvc, log)
	changeSlotsStatus := changeSlotsStatusHandler.NewHandler(slotsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// Rate limit (redis, при недоступности локальный лимитер)
	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		limiterCfg := middleware.RateLimitConfig{
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   cfg.RateLimit.RefillTokens,
			RefillInterval: time.Duration(cfg.RateLimit.RefillInterval) * time.Millisecond,
			TTL:            time.Duration(cfg.RateLimit.TTL) * time.Second,
			Prefix:         cfg.RateLimit.Prefix,
		}

		var limiter middleware.Limiter = middleware.NewLocalLimiter(limiterCfg)
		if cfg.Redis.Enabled {
			redisClient = newRedisClient(cfg.Redis, log)
			if redisClient != nil {
				limiter = middleware.NewFallbackLimiter(middleware.NewRedisLimiter(redisClient, limiterCfg), limiter, log)
			}
		}

		api.Use(middleware.RateLimit(limiter, cfg.RateLimit.Capacity, metricsCollector, log))
		log.Info("Rate limit enabled (capacity=%d, redis=%t)", cfg.RateLimit.Capacity, redisClient != nil)
	}

	// --- Бронирование ---
	api.HandleFunc("/bookings", bookSlots.Handle).Methods(http.MethodPost)

	// --- Слоты ---
	api.HandleFunc("/slots", listSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/{slotId}", getSlot.Handle).Methods(http.MethodGet)
	api.HandleFunc("/slots/{slotId}", updateSlot.Handle).Methods(http.MethodPatch)

	// --- Слоты операции ---
	api.HandleFunc("/surgeries/{surgeryId}/slots", getSurgerySlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/surgeries/{surgeryId}/slots", releaseSlots.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/surgeries/{surgeryId}/slots/status", changeSlotsStatus.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// RPC транспорт через RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rpcServer := rpc.NewServer(
			rpc.Config{
				URL:            cfg.RabbitMQ.URL,
				Queue:          cfg.RabbitMQ.Queue,
				Prefetch:       cfg.RabbitMQ.Prefetch,
				HandlerTimeout: time.Duration(cfg.RabbitMQ.HandlerTimeout) * time.Second,
			},
			rpc.NewDispatcher(bookSlotsUseCase, slotsSvc, log),
			metricsCollector,
			log,
		)
		g.Go(func() error {
			return rpcServer.Run(gCtx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}

// newRedisClient подключается к redis, nil если он недоступен
func newRedisClient(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable at %s, using local rate limiter: %v", cfg.Addr, err)
		_ = client.Close()
		return nil
	}

	log.Info("Connected to redis at %s", cfg.Addr)
	return client
}
