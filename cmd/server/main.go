package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ordervoice/voice-bridge/internal/bridge"
	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/extraction"
	"github.com/ordervoice/voice-bridge/internal/notify"
	"github.com/ordervoice/voice-bridge/internal/observability"
	"github.com/ordervoice/voice-bridge/internal/store"
	"github.com/ordervoice/voice-bridge/internal/stt"
	"github.com/ordervoice/voice-bridge/internal/telephony"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Bool("notifications_enabled", cfg.NotificationsEnabled()).
		Msg("Voice Bridge Service starting")

	ctx := context.Background()

	// Turn transcription client, biased toward the menu vocabulary
	transcriber, err := stt.NewGoogleClient(ctx, cfg, bridge.MenuPhrases, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create speech client")
	}
	defer transcriber.Close()

	// Post-call collaborators: extraction always, SMS and persistence only
	// when configured.
	extractor := extraction.NewOpenAIExtractor(cfg)

	var notifier extraction.Notifier
	if cfg.NotificationsEnabled() {
		notifier = notify.NewSMSNotifier(cfg)
	} else {
		logger.Warn().Msg("Twilio messaging not configured, SMS notifications disabled")
	}

	var orderStore *store.OrderStore
	var orders extraction.Store
	if cfg.DatabaseURL != "" {
		orderStore, err = store.NewOrderStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open order store")
		}
		defer orderStore.Close()
		orders = orderStore
	} else {
		logger.Warn().Msg("DATABASE_URL not set, order persistence disabled")
	}

	location, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.LocalTimezone).Msg("Invalid local timezone")
	}

	finalizer := extraction.NewTrigger(extractor, notifier, orders, location)

	// Create HTTP server
	mux := http.NewServeMux()

	// Root route, handy for checking the tunnel is up
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":"Voice Bridge Server is running!"}`)
	})

	// Twilio voice webhook and media stream websocket
	mux.HandleFunc("/incoming-call", telephony.IncomingCallHandler(cfg))
	mux.HandleFunc("/streams/media", bridge.Handler(cfg, transcriber, finalizer))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	checks := []observability.NamedCheck{
		{
			Name: "openai",
			Check: func(ctx context.Context) (bool, error) {
				if cfg.OpenAIAPIKey == "" {
					return false, fmt.Errorf("api key missing")
				}
				return true, nil
			},
		},
		{
			Name: "speech",
			Check: func(ctx context.Context) (bool, error) {
				if transcriber == nil {
					return false, fmt.Errorf("speech client not initialized")
				}
				return true, nil
			},
		},
	}
	if cfg.NotificationsEnabled() {
		checks = append(checks, observability.NamedCheck{
			Name: "twilio",
			Check: func(ctx context.Context) (bool, error) {
				if notifier == nil {
					return false, fmt.Errorf("sms client not initialized")
				}
				return true, nil
			},
		})
	}
	if orderStore != nil {
		checks = append(checks, observability.NamedCheck{
			Name: "database",
			Check: func(ctx context.Context) (bool, error) {
				if err := orderStore.Ping(ctx); err != nil {
					return false, err
				}
				return true, nil
			},
		})
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks...))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. No WriteTimeout: the media stream
	// websocket stays open for the life of a call.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/media", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
