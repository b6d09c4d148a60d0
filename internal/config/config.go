package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matyusmilan/xm-forex/pkg/crypto"
)

// Драйверы хранилища ордеров
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config содержит всю конфигурацию приложения
//
// Порядок применения: значения по умолчанию, затем YAML файл из CONFIG_FILE
// (если задан), затем переменные окружения.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Orders    OrdersConfig    `yaml:"orders"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig - настройки хранилища ордеров
type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	SSLMode        string `yaml:"ssl_mode"`
	ConnectRetries int    `yaml:"connect_retries"`
}

// OrdersConfig - параметры жизненного цикла ордеров
type OrdersConfig struct {
	DelayMin            time.Duration `yaml:"delay_min"`
	DelayMax            time.Duration `yaml:"delay_max"`
	AllowCancelExecuted bool          `yaml:"allow_cancel_executed"`
}

// WebSocketConfig - настройки канала ордеров
type WebSocketConfig struct {
	Greeting              string   `yaml:"greeting"`
	BroadcastOnDisconnect bool     `yaml:"broadcast_on_disconnect"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
}

// RateLimitConfig - лимиты размещения ордеров
//
// OrdersPerSecond - на адрес клиента для POST /orders (0 - выключено).
// WSMessagesPerSecond - на WebSocket соединение (0 - выключено).
type RateLimitConfig struct {
	OrdersPerSecond     float64 `yaml:"orders_per_second"`
	Burst               float64 `yaml:"burst"`
	WSMessagesPerSecond float64 `yaml:"ws_messages_per_second"`
}

// Enabled возвращает true если HTTP лимит включен
func (r RateLimitConfig) Enabled() bool {
	return r.OrdersPerSecond > 0
}

// MetricsConfig - basic auth для /metrics
type MetricsConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         DriverMemory,
			Host:           "localhost",
			Port:           5432,
			Name:           "forex",
			User:           "forex",
			SSLMode:        "disable",
			ConnectRetries: 10,
		},
		Orders: OrdersConfig{
			DelayMin:            100 * time.Millisecond,
			DelayMax:            time.Second,
			AllowCancelExecuted: true,
		},
		WebSocket: WebSocketConfig{
			Greeting:              "Connection...",
			BroadcastOnDisconnect: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load загружает конфигурацию из CONFIG_FILE и переменных окружения
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile накладывает значения из YAML файла
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv накладывает переменные окружения поверх текущих значений
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", c.Database.Driver))
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.ConnectRetries = getEnvAsInt("DB_CONNECT_RETRIES", c.Database.ConnectRetries)

	c.Orders.DelayMin = getEnvAsDuration("ORDER_DELAY_MIN", c.Orders.DelayMin)
	c.Orders.DelayMax = getEnvAsDuration("ORDER_DELAY_MAX", c.Orders.DelayMax)
	c.Orders.AllowCancelExecuted = getEnvAsBool("ORDER_ALLOW_CANCEL_EXECUTED", c.Orders.AllowCancelExecuted)

	c.WebSocket.Greeting = getEnv("WS_GREETING", c.WebSocket.Greeting)
	c.WebSocket.BroadcastOnDisconnect = getEnvAsBool("WS_BROADCAST_ON_DISCONNECT", c.WebSocket.BroadcastOnDisconnect)
	c.WebSocket.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.WebSocket.AllowedOrigins)

	c.RateLimit.OrdersPerSecond = getEnvAsFloat("RATE_LIMIT_RPS", c.RateLimit.OrdersPerSecond)
	c.RateLimit.Burst = getEnvAsFloat("RATE_LIMIT_BURST", c.RateLimit.Burst)
	c.RateLimit.WSMessagesPerSecond = getEnvAsFloat("WS_MESSAGES_PER_SECOND", c.RateLimit.WSMessagesPerSecond)

	c.Metrics.Username = getEnv("METRICS_USERNAME", c.Metrics.Username)
	c.Metrics.PasswordHash = getEnv("METRICS_PASSWORD_HASH", c.Metrics.PasswordHash)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
}

func (c *Config) validate() error {
	if err := c.validateRanges(); err != nil {
		return err
	}
	return c.validateMetrics()
}

// validateRanges проверяет числовые диапазоны и перечисления
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
		}
		if c.Database.ConnectRetries < 1 || c.Database.ConnectRetries > 100 {
			return fmt.Errorf("DB_CONNECT_RETRIES must be between 1 and 100, got %d", c.Database.ConnectRetries)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverMemory, DriverPostgres, c.Database.Driver)
	}

	// Валидация задержки исполнения
	if c.Orders.DelayMin < 0 {
		return fmt.Errorf("ORDER_DELAY_MIN cannot be negative, got %v", c.Orders.DelayMin)
	}
	if c.Orders.DelayMax < c.Orders.DelayMin {
		return fmt.Errorf("ORDER_DELAY_MAX (%v) must not be less than ORDER_DELAY_MIN (%v)", c.Orders.DelayMax, c.Orders.DelayMin)
	}

	// Валидация лимитов
	if c.RateLimit.OrdersPerSecond < 0 || c.RateLimit.Burst < 0 || c.RateLimit.WSMessagesPerSecond < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS, RATE_LIMIT_BURST and WS_MESSAGES_PER_SECOND cannot be negative")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}

	switch c.Logging.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

// validateMetrics проверяет учетные данные /metrics
func (c *Config) validateMetrics() error {
	if (c.Metrics.Username == "") != (c.Metrics.PasswordHash == "") {
		return fmt.Errorf("METRICS_USERNAME and METRICS_PASSWORD_HASH must be set together")
	}
	if err := c.MetricsCredentials().Validate(); err != nil {
		return fmt.Errorf("METRICS_PASSWORD_HASH: %w", err)
	}
	return nil
}

// MetricsCredentials возвращает учетные данные для basic auth на /metrics
func (c *Config) MetricsCredentials() crypto.Credentials {
	return crypto.Credentials{
		Username:     c.Metrics.Username,
		PasswordHash: c.Metrics.PasswordHash,
	}
}

// Addr возвращает адрес для HTTP сервера
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
