package weather

import "strings"

// Logographic condition words the model sometimes returns in place of an emoji,
// checked in order.
var glyphReplacements = []struct {
	marker string
	glyph  string
}{
	{"曇", "☁️"}, // cloudy
	{"晴", "☀️"}, // clear
	{"雨", "🌧️"}, // rain
	{"雪", "❄️"}, // snow
}

// SanitizeGlyph repairs an icon field from the model. Empty input becomes the
// generic fallback glyph, known logographic condition words map to their emoji,
// and anything else is returned unchanged.
func SanitizeGlyph(s string) string {
	if s == "" {
		return DefaultGlyph
	}
	for _, r := range glyphReplacements {
		if strings.Contains(s, r.marker) {
			return r.glyph
		}
	}
	return s
}
