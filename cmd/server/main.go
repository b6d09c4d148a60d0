package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/matyusmilan/xm-forex/internal/api"
	"github.com/matyusmilan/xm-forex/internal/config"
	"github.com/matyusmilan/xm-forex/internal/repository"
	"github.com/matyusmilan/xm-forex/internal/service"
	"github.com/matyusmilan/xm-forex/internal/websocket"
	"github.com/matyusmilan/xm-forex/pkg/crypto"
	"github.com/matyusmilan/xm-forex/pkg/ratelimit"
	"github.com/matyusmilan/xm-forex/pkg/retry"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

func main() {
	// forex-server hash-password <password> - bcrypt хеш для METRICS_PASSWORD_HASH
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer logger.Sync()

	// Инициализация хранилища ордеров
	repo, closeStore, err := initOrderRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize order store", zap.Error(err))
	}
	defer closeStore()

	// Инициализация сервисов
	orderService := service.NewOrderService(repo, service.OrderServiceConfig{
		Delayer:             service.NewRandomDelayer(cfg.Orders.DelayMin, cfg.Orders.DelayMax),
		AllowCancelExecuted: cfg.Orders.AllowCancelExecuted,
		Logger:              logger,
	})

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	wsHandler := websocket.NewHandler(hub, orderService, websocket.HandlerConfig{
		Greeting:              cfg.WebSocket.Greeting,
		BroadcastOnDisconnect: cfg.WebSocket.BroadcastOnDisconnect,
		AllowedOrigins:        cfg.WebSocket.AllowedOrigins,
		MessagesPerSecond:     cfg.RateLimit.WSMessagesPerSecond,
		Logger:                logger,
	})

	var orderLimiter *ratelimit.KeyedLimiter
	if cfg.RateLimit.Enabled() {
		orderLimiter = ratelimit.NewKeyedLimiter(cfg.RateLimit.OrdersPerSecond, cfg.RateLimit.Burst, ratelimit.DefaultIdleTTL)
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		OrderService:     orderService,
		WebSocket:        wsHandler,
		MetricsAuth:      cfg.MetricsCredentials(),
		OrderRateLimiter: orderLimiter,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		Logger:           logger,
	})

	// HTTP сервер
	// WriteTimeout больше максимальной задержки исполнения ордера
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15*time.Second + cfg.Orders.DelayMax,
		IdleTimeout:       60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Database.Driver),
			zap.Duration("delay_min", cfg.Orders.DelayMin),
			zap.Duration("delay_max", cfg.Orders.DelayMax),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown не ждет hijacked соединения, их закрывает остановка hub
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()

	logger.Info("server exited")
}

// initOrderRepository создает хранилище ордеров по DB_DRIVER
//
// Возвращает функцию закрытия (для memory - no-op).
func initOrderRepository(cfg *config.Config, logger *utils.Logger) (service.OrderRepositoryInterface, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Info("using in-memory order store")
		return repository.NewMemoryOrderRepository(), func() {}, nil
	}

	db, err := initDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewOrderRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to count orders: %w", err)
	}
	logger.Info("order store ready", zap.Int("orders", count))

	return repo, func() { db.Close() }, nil
}

// initDatabase создает подключение к базе данных
//
// Пинг повторяется с backoff: при старте через docker-compose
// PostgreSQL может быть еще не готов.
func initDatabase(cfg *config.Config, logger *utils.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	retryCfg := retry.DatabaseConfig(cfg.Database.ConnectRetries)
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	// Проверка подключения
	err = retry.Do(context.Background(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}, retryCfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))
	return db, nil
}

// hashPassword печатает bcrypt хеш пароля
func hashPassword(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: forex-server hash-password <password>")
	}

	hash, err := crypto.HashPassword(args[0], crypto.DefaultCost)
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}
