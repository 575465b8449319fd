package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pricing  PricingConfig
	Trading  TradingConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// PricingConfig - настройки источника цен
type PricingConfig struct {
	// Основной endpoint price API и резервные для failover
	PrimaryEndpoint string
	BackupEndpoints []string

	// Ключ API (заголовок X-API-KEY); пустое значение - без ключа
	APIKey string

	// Таймаут одного запроса цены. По истечении операция
	// завершается без каких-либо изменений в БД.
	RequestTimeout time.Duration

	// Rate limiting запросов к price API
	RateLimit float64 // запросов в секунду
	RateBurst float64

	// Интервал фонового опроса цен отслеживаемых токенов
	PollInterval time.Duration

	// Retry для запросов цены
	MaxRetries int
}

// TradingConfig - лимиты торгового симулятора
type TradingConfig struct {
	// Стартовый баланс нового кошелька (SOL)
	DefaultBalance float64

	// Границы размера позиции (SOL)
	MinTradeSize float64
	MaxTradeSize float64

	// Максимум открытых позиций на пользователя
	MaxPositionsPerUser int

	// Максимум открытых позиций одного направления (long/short)
	MaxPerDirection int

	// Лимиты экспозиции как доля от (balance + locked)
	PerTokenExposureCap float64
	TotalExposureCap    float64

	// Волатильность: окно последних N сэмплов и порог (max-min)/min
	VolatilityWindow int
	MaxVolatility    float64
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// bcrypt-хеш административного API токена
	AdminTokenHash string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "kitrader"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Pricing: PricingConfig{
			PrimaryEndpoint: getEnv("PRICE_API_URL", "https://public-api.birdeye.so"),
			BackupEndpoints: getEnvAsList("PRICE_API_BACKUP_URLS"),
			APIKey:          getEnv("PRICE_API_KEY", ""),
			RequestTimeout:  getEnvAsDuration("PRICE_REQUEST_TIMEOUT", 5*time.Second),
			RateLimit:       getEnvAsFloat("PRICE_RATE_LIMIT", 10),
			RateBurst:       getEnvAsFloat("PRICE_RATE_BURST", 20),
			PollInterval:    getEnvAsDuration("PRICE_POLL_INTERVAL", 30*time.Second),
			MaxRetries:      getEnvAsInt("PRICE_MAX_RETRIES", 3),
		},
		Trading: TradingConfig{
			DefaultBalance:      getEnvAsFloat("DEFAULT_BALANCE", 1000.0),
			MinTradeSize:        getEnvAsFloat("MIN_TRADE_SIZE", 0.1),
			MaxTradeSize:        getEnvAsFloat("MAX_TRADE_SIZE", 100.0),
			MaxPositionsPerUser: getEnvAsInt("MAX_POSITIONS_PER_USER", 10),
			MaxPerDirection:     getEnvAsInt("MAX_PER_DIRECTION", 3),
			PerTokenExposureCap: getEnvAsFloat("PER_TOKEN_EXPOSURE_CAP", 0.25),
			TotalExposureCap:    getEnvAsFloat("TOTAL_EXPOSURE_CAP", 0.75),
			VolatilityWindow:    getEnvAsInt("VOLATILITY_WINDOW", 10),
			MaxVolatility:       getEnvAsFloat("MAX_VOLATILITY", 0.10),
		},
		Security: SecurityConfig{
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Торговые лимиты
	if c.Trading.DefaultBalance <= 0 {
		return fmt.Errorf("DEFAULT_BALANCE must be positive, got %v", c.Trading.DefaultBalance)
	}

	if c.Trading.MinTradeSize <= 0 {
		return fmt.Errorf("MIN_TRADE_SIZE must be positive, got %v", c.Trading.MinTradeSize)
	}

	if c.Trading.MaxTradeSize < c.Trading.MinTradeSize {
		return fmt.Errorf("MAX_TRADE_SIZE must be >= MIN_TRADE_SIZE, got %v < %v",
			c.Trading.MaxTradeSize, c.Trading.MinTradeSize)
	}

	if c.Trading.MaxPositionsPerUser < 1 {
		return fmt.Errorf("MAX_POSITIONS_PER_USER must be at least 1, got %d", c.Trading.MaxPositionsPerUser)
	}

	if c.Trading.MaxPerDirection < 1 {
		return fmt.Errorf("MAX_PER_DIRECTION must be at least 1, got %d", c.Trading.MaxPerDirection)
	}

	// Доли экспозиции должны лежать в (0, 1]
	if c.Trading.PerTokenExposureCap <= 0 || c.Trading.PerTokenExposureCap > 1 {
		return fmt.Errorf("PER_TOKEN_EXPOSURE_CAP must be in (0, 1], got %v", c.Trading.PerTokenExposureCap)
	}

	if c.Trading.TotalExposureCap <= 0 || c.Trading.TotalExposureCap > 1 {
		return fmt.Errorf("TOTAL_EXPOSURE_CAP must be in (0, 1], got %v", c.Trading.TotalExposureCap)
	}

	if c.Trading.PerTokenExposureCap > c.Trading.TotalExposureCap {
		return fmt.Errorf("PER_TOKEN_EXPOSURE_CAP cannot exceed TOTAL_EXPOSURE_CAP (%v > %v)",
			c.Trading.PerTokenExposureCap, c.Trading.TotalExposureCap)
	}

	if c.Trading.VolatilityWindow < 2 {
		return fmt.Errorf("VOLATILITY_WINDOW must be at least 2, got %d", c.Trading.VolatilityWindow)
	}

	if c.Trading.MaxVolatility <= 0 {
		return fmt.Errorf("MAX_VOLATILITY must be positive, got %v", c.Trading.MaxVolatility)
	}

	// Валидация таймаутов (должны быть положительными)
	if c.Pricing.RequestTimeout <= 0 {
		return fmt.Errorf("PRICE_REQUEST_TIMEOUT must be positive, got %v", c.Pricing.RequestTimeout)
	}

	if c.Pricing.PollInterval <= 0 {
		return fmt.Errorf("PRICE_POLL_INTERVAL must be positive, got %v", c.Pricing.PollInterval)
	}

	// Валидация retry параметров
	if c.Pricing.MaxRetries < 0 {
		return fmt.Errorf("PRICE_MAX_RETRIES cannot be negative, got %d", c.Pricing.MaxRetries)
	}

	if c.Pricing.MaxRetries > 10 {
		return fmt.Errorf("PRICE_MAX_RETRIES should not exceed 10, got %d", c.Pricing.MaxRetries)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
