package app

import (
	"strings"

	"github.com/yegors/daily-sky/internal/weather"
)

// Theme is the visual mood derived from the current conditions
type Theme string

const (
	ThemeNight   Theme = "night"
	ThemeRain    Theme = "rain"
	ThemeSnow    Theme = "snow"
	ThemeCloudy  Theme = "cloudy"
	ThemeSunny   Theme = "sunny"
	ThemeDefault Theme = "default"
)

var nightGlyphs = []string{"🌙", "🌚", "🌜", "🌌", "🌃"}

// themeRules are checked in order against the lowercased condition
var themeRules = []struct {
	theme    Theme
	keywords []string
}{
	{ThemeRain, []string{"rain", "drizzle", "storm", "shower"}},
	{ThemeSnow, []string{"snow", "blizzard", "ice"}},
	{ThemeCloudy, []string{"cloud", "overcast", "fog", "mist"}},
	{ThemeSunny, []string{"sun", "clear", "hot"}},
}

// DeriveTheme picks the theme for s. Night wins over everything else.
func DeriveTheme(s *weather.Snapshot) Theme {
	if s == nil {
		return ThemeDefault
	}

	condition := strings.ToLower(s.Condition)
	if strings.Contains(condition, "night") || containsAny(s.CurrentIcon, nightGlyphs) {
		return ThemeNight
	}

	for _, rule := range themeRules {
		if containsAny(condition, rule.keywords) {
			return rule.theme
		}
	}
	return ThemeDefault
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
