package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"kitrader/internal/api"
	"kitrader/internal/bot"
	"kitrader/internal/config"
	"kitrader/internal/pricing"
	"kitrader/internal/repository"
	"kitrader/internal/service"
	"kitrader/internal/websocket"
	"kitrader/pkg/utils"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := utils.InitLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	utils.SetGlobalLogger(appLogger)
	logger := appLogger.Logger
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Источник цен: основной клиент + резервные endpoints через failover
	priceSource := buildPriceSource(cfg, logger)

	// In-memory окно цен для проверки волатильности
	tracker := bot.NewPriceTracker(cfg.Trading.VolatilityWindow)

	// Транзакционное ядро книги позиций
	ledger := bot.NewLedger(db, walletRepo, positionRepo, tradeRepo)

	// Движок симулятора торговли
	engine := bot.NewEngine(
		walletRepo,
		positionRepo,
		tradeRepo,
		priceRepo,
		ledger,
		priceSource,
		tracker,
		cfg.Trading,
		cfg.Pricing.RequestTimeout,
		logger,
	)

	// Инициализация сервисов
	userService := service.NewUserService(userRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)
	tokenService := service.NewTokenService(priceRepo, userService, logger)

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	notificationService.SetWebSocketHub(hub)
	engine.SetNotifier(notificationService)

	// Фоновый опрос цен отслеживаемых токенов
	poller := pricing.NewPoller(
		priceSource,
		priceRepo,
		priceRepo,
		tracker,
		cfg.Pricing.PollInterval,
		logger,
	)
	poller.Start()

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		Engine:              engine,
		UserService:         userService,
		TokenService:        tokenService,
		NotificationService: notificationService,
		WSHandler:           hub,
		AdminTokenHash:      cfg.Security.AdminTokenHash,
		Logger:              logger,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.Bool("https", cfg.Server.UseHTTPS))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	poller.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// buildPriceSource собирает источник цен из конфигурации.
// Один endpoint - обычный клиент, несколько - failover по порядку.
func buildPriceSource(cfg *config.Config, logger *zap.Logger) pricing.Source {
	var opts []pricing.ClientOption
	if cfg.Pricing.APIKey != "" {
		opts = append(opts, pricing.WithAPIKey(cfg.Pricing.APIKey))
	}

	newClient := func(endpoint string) *pricing.Client {
		return pricing.NewClient(
			endpoint,
			cfg.Pricing.RateLimit,
			cfg.Pricing.RateBurst,
			cfg.Pricing.MaxRetries,
			opts...,
		)
	}

	primary := newClient(cfg.Pricing.PrimaryEndpoint)
	if len(cfg.Pricing.BackupEndpoints) == 0 {
		return primary
	}

	sources := make([]pricing.Source, 0, len(cfg.Pricing.BackupEndpoints)+1)
	sources = append(sources, primary)
	for _, endpoint := range cfg.Pricing.BackupEndpoints {
		sources = append(sources, newClient(endpoint))
	}

	return pricing.NewFailoverSource(logger, sources...)
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
