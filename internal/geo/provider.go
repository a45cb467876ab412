package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/pkg/logger"
)

// ErrUnavailable means the current position could not be determined or the
// lookup was refused
var ErrUnavailable = errors.New("geolocation unavailable")

// Coordinates is a position in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query formats the coordinates as a weather query ("lat, lon")
func (c Coordinates) Query() string {
	return fmt.Sprintf("%g, %g", c.Latitude, c.Longitude)
}

// Provider resolves the current position
type Provider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// StaticProvider always returns the configured position
type StaticProvider struct {
	coords Coordinates
}

// NewStaticProvider creates a provider fixed at lat, lon
func NewStaticProvider(lat, lon float64) *StaticProvider {
	return &StaticProvider{coords: Coordinates{Latitude: lat, Longitude: lon}}
}

// Locate returns the configured position
func (p *StaticProvider) Locate(ctx context.Context) (Coordinates, error) {
	return p.coords, nil
}

// NoneProvider refuses every lookup
type NoneProvider struct{}

// Locate always returns ErrUnavailable
func (NoneProvider) Locate(ctx context.Context) (Coordinates, error) {
	return Coordinates{}, ErrUnavailable
}

// NewProvider builds the provider selected in cfg
func NewProvider(cfg config.GeolocationConfig, log *logger.Logger) Provider {
	switch cfg.Provider {
	case "static":
		return NewStaticProvider(cfg.Latitude, cfg.Longitude)
	case "ip":
		return NewIPProvider(cfg.IPLookupURL, time.Duration(cfg.TimeoutSeconds)*time.Second, log)
	default:
		return NoneProvider{}
	}
}
