package weather

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yegors/daily-sky/internal/ai"
	"github.com/yegors/daily-sky/internal/prompts"
	"github.com/yegors/daily-sky/pkg/logger"
)

// fakeGenerator records calls and replays a canned response or error
type fakeGenerator struct {
	mu    sync.Mutex
	calls []ai.GenerateRequest
	resp  *ai.GenerateResponse
	err   error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(key string, gen ai.ContentGenerator) *Service {
	log := logger.NewNop()
	cfg := DefaultConfig()
	cfg.APIKey = key
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	svc := NewService(cfg, gen, prompts.NewEngine(nil, log), log)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestFetchWeatherRefusesPlaceholderKey(t *testing.T) {
	for _, key := range []string{"", "PLACEHOLDER_API_KEY", "your_api_key_here"} {
		gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: fullPayload}}
		svc := newTestService(key, gen)

		_, err := svc.FetchWeather(context.Background(), "Paris")
		if !errors.Is(err, ErrCredential) {
			t.Errorf("key %q: expected credential error, got %v", key, err)
		}
		if gen.callCount() != 0 {
			t.Errorf("key %q: generator was called %d times", key, gen.callCount())
		}
		if !strings.Contains(UserMessage(err), "GEMINI_API_KEY") {
			t.Errorf("key %q: message %q does not name the variable", key, UserMessage(err))
		}
	}
}

func TestFetchWeatherParis(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{
		Text:      "```json\n" + fullPayload + "\n```",
		Citations: []string{"https://weather.example/paris", "https://other.example"},
	}}
	svc := newTestService("real-key", gen)

	s, err := svc.FetchWeather(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}

	if s.TemperatureC != 18 || s.Condition != "Cloudy" {
		t.Errorf("current = %v %q", s.TemperatureC, s.Condition)
	}
	if len(s.Hourly) != 1 || len(s.ForecastDays) != 7 {
		t.Errorf("hourly=%d forecast=%d", len(s.Hourly), len(s.ForecastDays))
	}
	if s.CitationURL != "https://weather.example/paris" {
		t.Errorf("citation = %q", s.CitationURL)
	}

	if gen.callCount() != 1 {
		t.Fatalf("calls = %d", gen.callCount())
	}
	req := gen.calls[0]
	if !req.SearchGround {
		t.Error("weather requests should enable search grounding")
	}
	if req.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", req.Model)
	}
	if !strings.Contains(req.Prompt, "Paris") {
		t.Error("prompt does not include the query")
	}
}

func TestFetchWeatherWithoutCitation(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: `{"location_name": "Lima"}`}}
	s, err := newTestService("real-key", gen).FetchWeather(context.Background(), "Lima")
	if err != nil {
		t.Fatal(err)
	}
	if s.CitationURL != "" {
		t.Errorf("citation = %q, want empty", s.CitationURL)
	}
}

func TestFetchWeatherNonJSON(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: "I could not find the weather for that place."}}

	_, err := newTestService("real-key", gen).FetchWeather(context.Background(), "Atlantis")
	if !errors.Is(err, ErrDataFormat) {
		t.Fatalf("expected data format error, got %v", err)
	}
	if UserMessage(err) != "Invalid data format received" {
		t.Errorf("message = %q", UserMessage(err))
	}
}

func TestFetchWeatherUnexpectedShape(t *testing.T) {
	for _, text := range []string{`{"hourly": {}}`, `{"current_temp_c": true}`} {
		gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: text}}

		_, err := newTestService("real-key", gen).FetchWeather(context.Background(), "Paris")
		if !errors.Is(err, ErrUnknown) {
			t.Errorf("%s: expected unknown error, got %v", text, err)
		}
		if !strings.HasPrefix(UserMessage(err), "Failed to fetch weather data: ") {
			t.Errorf("%s: message = %q", text, UserMessage(err))
		}
	}
}

func TestFetchWeatherNonFiniteNumbers(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: `{"location_name": "Oslo", "current_temp_c": "NaN", "feels_like_c": "-Infinity"}`}}

	s, err := newTestService("real-key", gen).FetchWeather(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("FetchWeather: %v", err)
	}
	if s.TemperatureC != 0 || s.FeelsLikeC != 0 {
		t.Errorf("temps = %v %v", s.TemperatureC, s.FeelsLikeC)
	}
	if _, err := json.Marshal(s); err != nil {
		t.Errorf("snapshot does not encode: %v", err)
	}
}

func TestFetchWeatherUpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		upstream error
		sentinel error
		kind     ErrorKind
		message  string
	}{
		{
			name:     "invalid key",
			upstream: errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"),
			sentinel: ErrCredential,
			kind:     KindCredential,
			message:  "Invalid API key. Please check your GEMINI_API_KEY in .env.local",
		},
		{
			name:     "key reason",
			upstream: errors.New("reason: API_KEY_INVALID"),
			sentinel: ErrCredential,
			kind:     KindCredential,
		},
		{
			name:     "permission",
			upstream: errors.New("Error 403, Message: forbidden, Status: PERMISSION_DENIED"),
			sentinel: ErrPermission,
			kind:     KindPermission,
			message:  "API key permission denied. Please check your API key permissions.",
		},
		{
			name:     "other",
			upstream: errors.New("connection reset by peer"),
			sentinel: ErrUnknown,
			kind:     KindUnknown,
			message:  "Failed to fetch weather data: connection reset by peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.upstream}
			_, err := newTestService("real-key", gen).FetchWeather(context.Background(), "Paris")

			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if KindOf(err) != tt.kind {
				t.Errorf("kind = %q, want %q", KindOf(err), tt.kind)
			}
			if tt.message != "" && UserMessage(err) != tt.message {
				t.Errorf("message = %q", UserMessage(err))
			}
			if !errors.Is(err, tt.upstream) {
				t.Error("underlying error should be preserved")
			}
		})
	}
}

func TestFetchWeatherNilResponse(t *testing.T) {
	_, err := newTestService("real-key", &fakeGenerator{}).FetchWeather(context.Background(), "Paris")
	if KindOf(err) != KindUnknown {
		t.Errorf("kind = %q", KindOf(err))
	}
}

func TestFetchWeatherCanceledContext(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: fullPayload}}
	svc := newTestService("real-key", gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.FetchWeather(ctx, "Paris"); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
	if gen.callCount() != 0 {
		t.Errorf("generator should not be reached, calls = %d", gen.callCount())
	}
}

func TestUserMessageFallback(t *testing.T) {
	if got := UserMessage(errors.New("boom")); got != "Connection failed. Please retry." {
		t.Errorf("got %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("got %q", got)
	}
}
