package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var codeFence = regexp.MustCompile("```json|```")

// StripCodeFences removes markdown code fences around a model response
func StripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

// parsePayload decodes the model's text into the response schema. Valid JSON
// of the wrong shape is reported as errUnexpectedShape.
func parsePayload(text string) (*payload, error) {
	clean := StripCodeFences(text)

	var p payload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) || errors.Is(err, errUnexpectedShape) {
			return nil, fmt.Errorf("%w: %w", errUnexpectedShape, err)
		}
		return nil, fmt.Errorf("failed to decode weather payload: %w", err)
	}
	return &p, nil
}

// normalize maps a decoded payload into a Snapshot, filling every absent field
func normalize(p *payload, query, citation string, now time.Time) *Snapshot {
	temp := p.CurrentTempC.or(0)

	s := &Snapshot{
		Query:             query,
		LocationName:      p.LocationName.or(query),
		TemperatureC:      temp,
		Condition:         p.CurrentCondition.or(DefaultCondition),
		CurrentIcon:       SanitizeGlyph(p.CurrentEmoji.or("")),
		Narrative:         p.Summary.or(DefaultNarrative),
		OutfitAdvice:      p.OutfitSuggestion.or(DefaultOutfitAdvice),
		FeelsLikeC:        p.FeelsLikeC.or(temp),
		HighC:             p.HighC.or(temp+fallbackSpreadC),
		LowC:              p.LowC.or(temp-fallbackSpreadC),
		UVIndex:           p.UVIndex.or(0),
		RainChancePercent: p.RainChancePercent.or(0),
		Hourly:            make([]HourlyPoint, 0, len(p.Hourly)),
		ForecastDays:      make([]ForecastDay, 0, len(p.Forecast)),
		CitationURL:       citation,
		FetchedAt:         now,
	}

	for _, h := range p.Hourly {
		s.Hourly = append(s.Hourly, HourlyPoint{
			Time:  h.Time.or(""),
			TempC: h.TempC.or(0),
			Icon:  SanitizeGlyph(h.Emoji.or("")),
		})
	}

	for _, d := range p.Forecast {
		s.ForecastDays = append(s.ForecastDays, ForecastDay{
			Day:       d.Day.or(""),
			LowC:      d.LowC.or(0),
			HighC:     d.HighC.or(0),
			Condition: d.Condition.or(DefaultCondition),
			Icon:      SanitizeGlyph(d.Emoji.or("")),
		})
	}

	return s
}
