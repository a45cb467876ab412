package weather

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/yegors/daily-sky/internal/ai"
	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/internal/prompts"
	"github.com/yegors/daily-sky/pkg/logger"
)

// SuggestLocations returns up to the configured number of place names
// matching partial. It never fails: short input and any upstream or parse
// error yield an empty list.
func (s *Service) SuggestLocations(ctx context.Context, partial string) []string {
	partial = strings.TrimSpace(partial)
	if !s.ShouldSuggest(partial) {
		return []string{}
	}

	if !config.IsUsableAPIKey(s.config.APIKey) {
		s.logger.Warn("Autocomplete skipped: API key missing")
		return []string{}
	}

	prompt, err := s.prompts.RenderSuggestions(prompts.SuggestionData{Query: partial, Count: s.config.SuggestionCount})
	if err != nil {
		s.logger.Warn("Autocomplete prompt failed", logger.Error(err))
		return []string{}
	}

	resp, err := s.generate(ctx, ai.GenerateRequest{Model: s.config.Model, Prompt: prompt})
	if err != nil {
		s.logger.Warn("Autocomplete error", logger.String("query", partial), logger.Error(err))
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal([]byte(StripCodeFences(resp.Text)), &raw); err != nil {
		s.logger.Warn("Autocomplete returned malformed JSON",
			logger.String("query", partial),
			logger.Error(err))
		return []string{}
	}

	suggestions := cleanSuggestions(raw, s.config.SuggestionCount)
	s.logger.Debug("Autocomplete suggestions",
		logger.String("query", partial),
		logger.Strings("suggestions", suggestions))
	return suggestions
}

// ShouldSuggest reports whether partial is long enough to ask for suggestions
func (s *Service) ShouldSuggest(partial string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(partial)) >= s.config.SuggestionMinLen
}

// cleanSuggestions trims, drops blanks and case-insensitive duplicates, and caps the list
func cleanSuggestions(raw []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]bool, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
		if len(out) == limit {
			break
		}
	}
	return out
}
