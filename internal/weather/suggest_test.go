package weather

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yegors/daily-sky/internal/ai"
)

func TestSuggestLocationsShortInput(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{Text: `["London, UK"]`}}
	svc := newTestService("real-key", gen)

	for _, q := range []string{"", "Lo", "  Lo  ", "東京"} {
		got := svc.SuggestLocations(context.Background(), q)
		if got == nil || len(got) != 0 {
			t.Errorf("SuggestLocations(%q) = %v, want empty", q, got)
		}
	}
	if gen.callCount() != 0 {
		t.Errorf("short input reached the generator %d times", gen.callCount())
	}
}

func TestSuggestLocations(t *testing.T) {
	gen := &fakeGenerator{resp: &ai.GenerateResponse{
		Text: "```json\n[\"London, UK\", \"London, Ontario\", \"Lone Tree, CO\"]\n```",
	}}
	svc := newTestService("real-key", gen)

	got := svc.SuggestLocations(context.Background(), "Lon")
	want := []string{"London, UK", "London, Ontario", "Lone Tree, CO"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	req := gen.calls[0]
	if req.SearchGround {
		t.Error("suggestions should not use search grounding")
	}
}

func TestSuggestLocationsNeverFails(t *testing.T) {
	tests := []struct {
		name string
		key  string
		gen  *fakeGenerator
	}{
		{"malformed", "real-key", &fakeGenerator{resp: &ai.GenerateResponse{Text: "London, Paris"}}},
		{"object", "real-key", &fakeGenerator{resp: &ai.GenerateResponse{Text: `{"cities": []}`}}},
		{"upstream", "real-key", &fakeGenerator{err: errors.New("Error 500")}},
		{"no key", "", &fakeGenerator{resp: &ai.GenerateResponse{Text: `["Paris"]`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestService(tt.key, tt.gen).SuggestLocations(context.Background(), "Par")
			if got == nil || len(got) != 0 {
				t.Errorf("got %v, want empty", got)
			}
		})
	}
}

func TestCleanSuggestions(t *testing.T) {
	raw := []string{" Paris, France ", "paris, france", "", "Parma, Italy", "Paris, TX", "Parikia", "Paradise, NV", "Paraty"}
	got := cleanSuggestions(raw, 5)
	want := []string{"Paris, France", "Parma, Italy", "Paris, TX", "Parikia", "Paradise, NV"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
