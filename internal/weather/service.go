package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/daily-sky/internal/ai"
	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/internal/prompts"
	"github.com/yegors/daily-sky/pkg/logger"
	"golang.org/x/time/rate"
)

// Config holds the weather service settings
type Config struct {
	APIKey            string
	Model             string
	SearchGrounding   bool
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	SuggestionMinLen  int
	SuggestionCount   int
}

// DefaultConfig returns the default weather service configuration
func DefaultConfig() Config {
	return Config{
		Model:             "gemini-2.5-flash",
		SearchGrounding:   true,
		RequestTimeout:    60 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
		SuggestionMinLen:  3,
		SuggestionCount:   5,
	}
}

// Service acquires weather snapshots and location suggestions from a generation API
type Service struct {
	config    Config
	generator ai.ContentGenerator
	prompts   *prompts.Engine
	limiter   *rate.Limiter
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a new weather service
func NewService(cfg Config, generator ai.ContentGenerator, promptEngine *prompts.Engine, log *logger.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.SuggestionMinLen <= 0 {
		cfg.SuggestionMinLen = defaults.SuggestionMinLen
	}
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = defaults.SuggestionCount
	}

	svcLogger := log.Named("weather-service")
	if !config.IsUsableAPIKey(cfg.APIKey) {
		svcLogger.Error("GEMINI_API_KEY is missing or invalid; weather requests will fail until it is set")
	}

	return &Service{
		config:    cfg,
		generator: generator,
		prompts:   promptEngine,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:    svcLogger,
		now:       time.Now,
	}
}

// FetchWeather asks the model for current weather at query and returns the
// normalized snapshot. Failures are always *FetchError.
func (s *Service) FetchWeather(ctx context.Context, query string) (*Snapshot, error) {
	if !config.IsUsableAPIKey(s.config.APIKey) {
		err := missingCredentialError()
		s.logger.Error("Weather fetch refused", logger.String("query", query), logger.Error(err))
		return nil, err
	}

	prompt, err := s.prompts.RenderWeather(prompts.WeatherData{Query: query})
	if err != nil {
		s.logger.Error("Failed to render weather prompt", logger.Error(err))
		return nil, &FetchError{Kind: KindUnknown, Message: "Failed to fetch weather data: " + err.Error(), Err: err}
	}

	start := s.now()
	s.logger.Debug("Fetching weather", logger.String("query", query), logger.String("model", s.config.Model))

	resp, err := s.generate(ctx, ai.GenerateRequest{
		Model:        s.config.Model,
		Prompt:       prompt,
		SearchGround: s.config.SearchGrounding,
	})
	if err != nil {
		fe := classifyUpstream(err)
		s.logger.Error("Weather generation failed",
			logger.String("query", query),
			logger.String("kind", string(fe.Kind)),
			logger.Error(err))
		return nil, fe
	}

	p, err := parsePayload(resp.Text)
	if err != nil {
		s.logger.Error("Failed to parse weather JSON",
			logger.String("query", query),
			logger.String("response", StripCodeFences(resp.Text)),
			logger.Error(err))
		if errors.Is(err, errUnexpectedShape) {
			return nil, unexpectedShapeError(err)
		}
		return nil, dataFormatError(err)
	}

	snapshot := normalize(p, query, resp.FirstCitation(), s.now())

	s.logger.Info("Weather fetched",
		logger.String("query", query),
		logger.String("location", snapshot.LocationName),
		logger.Int("hourly", len(snapshot.Hourly)),
		logger.Int("forecast_days", len(snapshot.ForecastDays)),
		logger.Bool("cited", snapshot.CitationURL != ""),
		logger.Time("fetched_at", snapshot.FetchedAt),
		logger.Duration("duration", s.now().Sub(start)))

	return snapshot, nil
}

// generate waits on the rate limiter and runs one bounded generation call
func (s *Service) generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	resp, err := s.generator.GenerateContent(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response from model")
	}
	return resp, nil
}
