package weather

import (
	"math"
	"strings"
)

// Unit selects the temperature scale for display values
type Unit string

const (
	Celsius    Unit = "c"
	Fahrenheit Unit = "f"
)

// ParseUnit maps "f"/"fahrenheit" to Fahrenheit and anything else to Celsius
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "fahrenheit":
		return Fahrenheit
	default:
		return Celsius
	}
}

// ToFahrenheit converts and rounds to a whole degree
func ToFahrenheit(c float64) int {
	return int(math.Round(c*9/5 + 32))
}

// InUnit rounds c to a whole degree in the given unit
func InUnit(c float64, u Unit) int {
	if u == Fahrenheit {
		return ToFahrenheit(c)
	}
	return int(math.Round(c))
}

// DualTemp is a temperature shown in both scales
type DualTemp struct {
	C int `json:"c"`
	F int `json:"f"`
}

// Dual rounds c and pairs it with its Fahrenheit conversion
func Dual(c float64) DualTemp {
	return DualTemp{C: int(math.Round(c)), F: ToFahrenheit(c)}
}

// HourlyChartPoint is an hourly entry with its vertical placement.
// YRatio is 0 at the coldest hour and 1 at the warmest.
type HourlyChartPoint struct {
	Time   string   `json:"time"`
	Temp   DualTemp `json:"temp"`
	Icon   string   `json:"icon"`
	YRatio float64  `json:"y_ratio"`
}

// ForecastBar is a forecast day with its range bar placement in percent
type ForecastBar struct {
	Day          string  `json:"day"`
	Condition    string  `json:"condition"`
	Icon         string  `json:"icon"`
	Low          int     `json:"low"`
	High         int     `json:"high"`
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
}

// Display is the precomputed presentation data for a snapshot
type Display struct {
	Unit      Unit               `json:"unit"`
	Current   DualTemp           `json:"current"`
	FeelsLike DualTemp           `json:"feels_like"`
	High      DualTemp           `json:"high"`
	Low       DualTemp           `json:"low"`
	Hourly    []HourlyChartPoint `json:"hourly"`
	Forecast  []ForecastBar      `json:"forecast"`
}

// BuildDisplay computes dual temperatures, hourly chart ratios and range bars
func BuildDisplay(s *Snapshot, u Unit) Display {
	return Display{
		Unit:      u,
		Current:   Dual(s.TemperatureC),
		FeelsLike: Dual(s.FeelsLikeC),
		High:      Dual(s.HighC),
		Low:       Dual(s.LowC),
		Hourly:    HourlyChart(s.Hourly),
		Forecast:  ForecastBars(s.ForecastDays, u),
	}
}

// HourlyChart places each hourly point between the min and max temperature
func HourlyChart(points []HourlyPoint) []HourlyChartPoint {
	out := make([]HourlyChartPoint, 0, len(points))
	if len(points) == 0 {
		return out
	}

	lo, hi := points[0].TempC, points[0].TempC
	for _, p := range points[1:] {
		lo = math.Min(lo, p.TempC)
		hi = math.Max(hi, p.TempC)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	for _, p := range points {
		out = append(out, HourlyChartPoint{
			Time:   p.Time,
			Temp:   Dual(p.TempC),
			Icon:   p.Icon,
			YRatio: (p.TempC - lo) / span,
		})
	}
	return out
}

// ForecastBars places each day's low-high range on a shared scale spanning
// the coldest low to the warmest high, in whole degrees of unit u.
func ForecastBars(days []ForecastDay, u Unit) []ForecastBar {
	out := make([]ForecastBar, 0, len(days))
	if len(days) == 0 {
		return out
	}

	minLow, maxHigh := math.MaxInt, math.MinInt
	for _, d := range days {
		minLow = min(minLow, InUnit(d.LowC, u))
		maxHigh = max(maxHigh, InUnit(d.HighC, u))
	}
	span := float64(maxHigh - minLow)
	if span == 0 {
		span = 1
	}

	for _, d := range days {
		low, high := InUnit(d.LowC, u), InUnit(d.HighC, u)
		out = append(out, ForecastBar{
			Day:          d.Day,
			Condition:    d.Condition,
			Icon:         d.Icon,
			Low:          low,
			High:         high,
			LeftPercent:  float64(low-minLow) / span * 100,
			WidthPercent: float64(high-low) / span * 100,
		})
	}
	return out
}
