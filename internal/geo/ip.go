package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yegors/daily-sky/pkg/logger"
)

// ipLookupResponse is the subset of an ip-api.com style response we read
type ipLookupResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
}

// IPProvider approximates the position from the caller's public IP address
type IPProvider struct {
	client *resty.Client
	url    string
	logger *logger.Logger
}

// NewIPProvider creates a provider that queries lookupURL
func NewIPProvider(lookupURL string, timeout time.Duration, log *logger.Logger) *IPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &IPProvider{
		client: client,
		url:    lookupURL,
		logger: log.Named("geolocation"),
	}
}

// Locate performs the lookup. Every failure wraps ErrUnavailable.
func (p *IPProvider) Locate(ctx context.Context) (Coordinates, error) {
	var result ipLookupResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(p.url)
	if err != nil {
		p.logger.Warn("IP geolocation request failed", logger.Error(err))
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !resp.IsSuccess() {
		p.logger.Warn("IP geolocation returned an error status", logger.Int("status", resp.StatusCode()))
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	if result.Status != "" && result.Status != "success" {
		p.logger.Warn("IP geolocation refused", logger.String("message", result.Message))
		return Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, result.Message)
	}

	if result.Lat == nil || result.Lon == nil {
		return Coordinates{}, fmt.Errorf("%w: response has no coordinates", ErrUnavailable)
	}

	coords := Coordinates{Latitude: *result.Lat, Longitude: *result.Lon}
	p.logger.Debug("Located by IP",
		logger.Float64("lat", coords.Latitude),
		logger.Float64("lon", coords.Longitude),
		logger.String("city", result.City))
	return coords, nil
}
