package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/daily-sky/internal/ai/gemini"
	"github.com/yegors/daily-sky/internal/api"
	"github.com/yegors/daily-sky/internal/app"
	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/internal/favorites"
	"github.com/yegors/daily-sky/internal/geo"
	"github.com/yegors/daily-sky/internal/prompts"
	"github.com/yegors/daily-sky/internal/storage/postgres"
	"github.com/yegors/daily-sky/internal/storage/sqlite"
	"github.com/yegors/daily-sky/internal/weather"
	"github.com/yegors/daily-sky/internal/websocket"
	"github.com/yegors/daily-sky/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Daily Sky server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.String("model", cfg.Gemini.Model),
		logger.Bool("api_key_configured", cfg.HasUsableAPIKey()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Favorites storage
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open favorites storage", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	favs, err := favorites.Open(ctx, store, log)
	if err != nil {
		log.Error("Failed to load favorites", logger.Error(err))
		os.Exit(1)
	}

	// Weather acquisition
	generator := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Timeout: time.Duration(cfg.Gemini.RequestTimeoutSeconds) * time.Second,
	}, log)

	promptEngine := prompts.NewEngine(map[string]string{
		prompts.Weather:     cfg.Gemini.WeatherPromptPath,
		prompts.Suggestions: cfg.Gemini.SuggestionPromptPath,
	}, log)

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	go promptEngine.WatchReload(ctx, hupCh)

	weatherService := weather.NewService(weather.Config{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		SearchGrounding:   cfg.Gemini.SearchGrounding,
		RequestTimeout:    time.Duration(cfg.Gemini.RequestTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
		SuggestionMinLen:  cfg.Suggestions.MinQueryLength,
		SuggestionCount:   cfg.Suggestions.Count,
	}, generator, promptEngine, log)

	// Application state
	locator := geo.NewProvider(cfg.Geolocation, log)
	controller := app.NewController(weatherService, favs, locator, log)

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run(ctx)

	wsHandler := app.NewWebSocketHandler(controller, weatherService, wsServer,
		time.Duration(cfg.Suggestions.DebounceMs)*time.Millisecond, log)
	wsServer.SetMessageHandler(wsHandler)

	// Initial location: default favorite or current position
	controller.MountAsync()

	// Create API router
	router := api.NewRouter(controller, weatherService, cfg, log, wsServer)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", logger.String("addr", addr), logger.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal or a fatal server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	// Stop background work after the listener is closed
	cancel()
	controller.Close()

	log.Info("Server fully stopped")
}

// favoritesStore is a favorites.Store that owns a connection
type favoritesStore interface {
	favorites.Store
	io.Closer
}

// openStore opens the configured favorites backend
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (favoritesStore, error) {
	if cfg.Storage.Type == "postgres" {
		store, err := postgres.NewKVStore(ctx, cfg.Storage.PostgresURL, favorites.StorageKey, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := sqlite.NewKVStore(cfg.Storage.SQLitePath, favorites.StorageKey, log)
	if err != nil {
		return nil, err
	}
	return store, nil
}
