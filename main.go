package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/investbot/src/calculator"
	"github.com/username/investbot/src/config"
	"github.com/username/investbot/src/handlers"
	"github.com/username/investbot/src/logger"
	"github.com/username/investbot/src/models"
	"github.com/username/investbot/src/telegram"
	"github.com/username/investbot/src/tinkoff"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		logger.L.Debug("Incoming request", "requestID", requestID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Invest statistics bot starting...")

	clientFactory := tinkoff.NewClientFactory(
		config.Cfg.BrokerageAPIBaseURL,
		config.Cfg.HTTPClientTimeout,
		config.Cfg.InstrumentCacheTTL,
	)
	bot := telegram.NewClient(config.Cfg.TelegramAPIBaseURL, config.Cfg.TelegramToken, config.Cfg.HTTPClientTimeout)

	defaultCurrency := models.Currency(config.Cfg.DefaultCurrency)
	newCalculator := func(token string) *calculator.Calculator {
		return calculator.NewCalculator(clientFactory.WithToken(token), defaultCurrency)
	}
	webhookHandler := handlers.NewWebhookHandler(bot, newCalculator)

	logger.L.Info("Configuring routes...")
	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(rateLimitMiddleware)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Invest statistics bot is running"})
	})
	router.Post("/webhook", webhookHandler.HandleWebhook)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
