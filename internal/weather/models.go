package weather

import (
	"time"
)

// Snapshot is one normalized, fully defaulted weather result for a single query
type Snapshot struct {
	Query             string        `json:"query"`
	LocationName      string        `json:"location_name"`
	TemperatureC      float64       `json:"temperature_c"`
	Condition         string        `json:"condition"`
	CurrentIcon       string        `json:"current_icon"`
	Narrative         string        `json:"narrative"`
	OutfitAdvice      string        `json:"outfit_advice"`
	FeelsLikeC        float64       `json:"feels_like_c"`
	HighC             float64       `json:"high_c"`
	LowC              float64       `json:"low_c"`
	UVIndex           float64       `json:"uv_index"`
	RainChancePercent float64       `json:"rain_chance_percent"`
	Hourly            []HourlyPoint `json:"hourly"`
	ForecastDays      []ForecastDay `json:"forecast_days"`
	CitationURL       string        `json:"citation_url,omitempty"`
	FetchedAt         time.Time     `json:"fetched_at"`
}

// HourlyPoint is one entry of the hourly trend
type HourlyPoint struct {
	Time  string  `json:"time"`
	TempC float64 `json:"temp_c"`
	Icon  string  `json:"icon"`
}

// ForecastDay is one entry of the multi-day outlook
type ForecastDay struct {
	Day       string  `json:"day"`
	LowC      float64 `json:"low_c"`
	HighC     float64 `json:"high_c"`
	Condition string  `json:"condition"`
	Icon      string  `json:"icon"`
}

// Defaults used when the upstream response omits a field
const (
	DefaultCondition    = "Unknown"
	DefaultNarrative    = "Enjoy the weather!"
	DefaultOutfitAdvice = "Wear whatever feels right."
	DefaultGlyph        = "🌤️"

	// Offset applied to the current temperature when high/low are missing
	fallbackSpreadC = 5.0
)

// payload mirrors the JSON the model is asked to produce. Every field
// records whether it was present so that absence can be told apart from zero.
type payload struct {
	LocationName      flexText          `json:"location_name"`
	CurrentTempC      flexNumber        `json:"current_temp_c"`
	CurrentCondition  flexText          `json:"current_condition"`
	CurrentEmoji      flexText          `json:"current_emoji"`
	FeelsLikeC        flexNumber        `json:"feels_like_c"`
	HighC             flexNumber        `json:"high_c"`
	LowC              flexNumber        `json:"low_c"`
	UVIndex           flexNumber        `json:"uv_index"`
	RainChancePercent flexNumber        `json:"rain_chance_percent"`
	Summary           flexText          `json:"summary"`
	OutfitSuggestion  flexText          `json:"outfit_suggestion"`
	Hourly            []hourlyPayload   `json:"hourly"`
	Forecast          []forecastPayload `json:"forecast"`
}

type hourlyPayload struct {
	Time  flexText   `json:"time"`
	TempC flexNumber `json:"temp_c"`
	Emoji flexText   `json:"emoji"`
}

type forecastPayload struct {
	Day       flexText   `json:"day"`
	LowC      flexNumber `json:"low_c"`
	HighC     flexNumber `json:"high_c"`
	Condition flexText   `json:"condition"`
	Emoji     flexText   `json:"emoji"`
}
