package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	TelegramToken       string
	Port                string
	LogLevel            string
	DefaultCurrency     string
	BrokerageAPIBaseURL string
	TelegramAPIBaseURL  string
	HTTPClientTimeout   time.Duration
	InstrumentCacheTTL  time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: no .env file found, relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	if telegramToken == "" {
		log.Fatalf("FATAL: TELEGRAM_TOKEN is required but not set in environment or .env file.")
	}

	Cfg = &AppConfig{
		TelegramToken:       telegramToken,
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "RUB"),
		BrokerageAPIBaseURL: getEnv("BROKERAGE_API_BASE_URL", "https://api-invest.tinkoff.ru/openapi"),
		TelegramAPIBaseURL:  getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		HTTPClientTimeout:   getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 20*time.Second),
		InstrumentCacheTTL:  getEnvAsDuration("INSTRUMENT_CACHE_TTL", 15*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DefaultCurrency=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DefaultCurrency)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
