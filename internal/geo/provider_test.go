package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/pkg/logger"
)

func TestCoordinatesQuery(t *testing.T) {
	tests := []struct {
		c    Coordinates
		want string
	}{
		{Coordinates{48.8566, 2.3522}, "48.8566, 2.3522"},
		{Coordinates{-33.9, 151}, "-33.9, 151"},
		{Coordinates{0, 0}, "0, 0"},
	}
	for _, tt := range tests {
		if got := tt.c.Query(); got != tt.want {
			t.Errorf("Query() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	log := logger.NewNop()

	static := NewProvider(config.GeolocationConfig{Provider: "static", Latitude: 1, Longitude: 2}, log)
	c, err := static.Locate(context.Background())
	if err != nil || c != (Coordinates{1, 2}) {
		t.Errorf("static = %+v, %v", c, err)
	}

	if _, ok := NewProvider(config.GeolocationConfig{Provider: "ip", IPLookupURL: "http://x"}, log).(*IPProvider); !ok {
		t.Error("ip provider not selected")
	}

	none := NewProvider(config.GeolocationConfig{Provider: "none"}, log)
	if _, err := none.Locate(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("none provider error = %v", err)
	}
}

func newIPServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIPProviderLocate(t *testing.T) {
	srv := newIPServer(t, http.StatusOK, `{"status":"success","lat":35.6895,"lon":139.6917,"city":"Tokyo"}`)
	p := NewIPProvider(srv.URL, time.Second, logger.NewNop())

	c, err := p.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Query() != "35.6895, 139.6917" {
		t.Errorf("coords = %+v", c)
	}
}

func TestIPProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"refused", http.StatusOK, `{"status":"fail","message":"private range"}`},
		{"server error", http.StatusInternalServerError, `{}`},
		{"no coordinates", http.StatusOK, `{"status":"success"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newIPServer(t, tt.status, tt.body)
			_, err := NewIPProvider(srv.URL, time.Second, logger.NewNop()).Locate(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestIPProviderUnreachable(t *testing.T) {
	srv := newIPServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	_, err := NewIPProvider(url, time.Second, logger.NewNop()).Locate(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
