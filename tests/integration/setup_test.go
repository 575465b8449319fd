// Package integration contains integration tests for the simulated trading backend.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle
// - WebSocket tests: connection, broadcast messaging
// - Database tests: migrations, transactions
//
// Tests skip automatically when the test database is unavailable.
// Run with: go test ./tests/integration/...
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitrader/internal/api"
	"kitrader/internal/bot"
	"kitrader/internal/config"
	"kitrader/internal/repository"
	"kitrader/internal/service"
	"kitrader/internal/websocket"
)

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB       *sql.DB
	Router   *mux.Router
	Server   *httptest.Server
	Hub      *websocket.Hub
	Engine   *bot.Engine
	Prices   *stubPriceSource
	Repos    *TestRepositories
	Services *TestServices
	Cleanup  func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	User         *repository.UserRepository
	Wallet       *repository.WalletRepository
	Position     *repository.PositionRepository
	Trade        *repository.TradeRepository
	Price        *repository.PriceRepository
	Notification *repository.NotificationRepository
}

// TestServices contains all service instances for testing
type TestServices struct {
	User         *service.UserService
	Token        *service.TokenService
	Notification *service.NotificationService
}

// stubPriceSource returns fixed prices instead of calling a price API
type stubPriceSource struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func newStubPriceSource() *stubPriceSource {
	return &stubPriceSource{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the price returned for a token
func (s *stubPriceSource) SetPrice(token string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[token] = price
}

func (s *stubPriceSource) GetPrice(_ context.Context, token string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("no stub price for token %s", token)
	}
	return price, nil
}

// testTradingConfig returns trading limits matching the production defaults
func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		DefaultBalance:      1000,
		MinTradeSize:        0.1,
		MaxTradeSize:        100,
		MaxPositionsPerUser: 10,
		MaxPerDirection:     3,
		PerTokenExposureCap: 0.25,
		TotalExposureCap:    0.75,
		VolatilityWindow:    10,
		MaxVolatility:       0.10,
	}
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "kitrader_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	cfg := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open(cfg.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// SetupTestServer creates a complete test server with all components
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}

	logger := zap.NewNop()

	hub := websocket.NewHub(logger)
	go hub.Run()

	repos := &TestRepositories{
		User:         repository.NewUserRepository(db),
		Wallet:       repository.NewWalletRepository(db),
		Position:     repository.NewPositionRepository(db),
		Trade:        repository.NewTradeRepository(db),
		Price:        repository.NewPriceRepository(db),
		Notification: repository.NewNotificationRepository(db),
	}

	tradingCfg := testTradingConfig()
	prices := newStubPriceSource()
	tracker := bot.NewPriceTracker(tradingCfg.VolatilityWindow)
	ledger := bot.NewLedger(db, repos.Wallet, repos.Position, repos.Trade)

	engine := bot.NewEngine(
		repos.Wallet,
		repos.Position,
		repos.Trade,
		repos.Price,
		ledger,
		prices,
		tracker,
		tradingCfg,
		2*time.Second,
		logger,
	)

	userSvc := service.NewUserService(repos.User, logger)
	notificationSvc := service.NewNotificationService(repos.Notification, logger)
	services := &TestServices{
		User:         userSvc,
		Token:        service.NewTokenService(repos.Price, userSvc, logger),
		Notification: notificationSvc,
	}

	notificationSvc.SetWebSocketHub(hub)
	engine.SetNotifier(notificationSvc)

	deps := &api.Dependencies{
		Engine:              engine,
		UserService:         services.User,
		TokenService:        services.Token,
		NotificationService: services.Notification,
		WSHandler:           hub,
		Logger:              logger,
	}
	router := api.SetupRoutes(deps)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:       db,
		Router:   router,
		Server:   server,
		Hub:      hub,
		Engine:   engine,
		Prices:   prices,
		Repos:    repos,
		Services: services,
		Cleanup:  cleanup,
	}
}

// initTestTables creates or truncates tables for testing
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR(32) NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL DEFAULT 'basic',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id BIGINT PRIMARY KEY,
			balance DECIMAL(30, 9) NOT NULL,
			locked DECIMAL(30, 9) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			token VARCHAR(44) NOT NULL,
			type VARCHAR(5) NOT NULL,
			size DECIMAL(30, 9) NOT NULL,
			entry_price DECIMAL(30, 9) NOT NULL,
			open_time TIMESTAMP NOT NULL DEFAULT NOW(),
			status VARCHAR(10) NOT NULL DEFAULT 'open',
			close_price DECIMAL(30, 9),
			close_time TIMESTAMP,
			pnl DECIMAL(30, 9)
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			position_id BIGINT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			token VARCHAR(44) NOT NULL,
			side VARCHAR(4) NOT NULL,
			size DECIMAL(30, 9) NOT NULL,
			price DECIMAL(30, 9) NOT NULL,
			pnl DECIMAL(30, 9),
			created_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS solana_tokens (
			address VARCHAR(44) PRIMARY KEY,
			symbol VARCHAR(16) NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			added_at TIMESTAMP DEFAULT NOW(),
			added_by BIGINT NOT NULL DEFAULT 0,
			tracked BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS price_samples (
			id BIGSERIAL PRIMARY KEY,
			token VARCHAR(44) NOT NULL,
			price_sol DECIMAL(30, 9) NOT NULL,
			time TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP DEFAULT NOW(),
			type VARCHAR(16) NOT NULL,
			severity VARCHAR(8) NOT NULL DEFAULT 'info',
			user_id BIGINT,
			position_id BIGINT,
			message TEXT NOT NULL,
			meta JSONB DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_user_status ON positions (user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_price_samples_token_time ON price_samples (token, time)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// cleanupTestTables truncates all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"trades",
		"positions",
		"notifications",
		"price_samples",
		"solana_tokens",
		"wallets",
		"users",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}
}

// TruncateTable truncates a specific table for testing
func TruncateTable(db *sql.DB, tableName string) error {
	_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", tableName))
	return err
}
