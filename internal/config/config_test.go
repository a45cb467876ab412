package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAndValidateDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	path := writeConfig(t, `
[server]
port = 9000

[gemini]
api_key = "abc123"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Suggestions.MinQueryLength != 3 || cfg.Suggestions.Count != 5 || cfg.Suggestions.DebounceMs != 500 {
		t.Errorf("suggestion defaults = %+v", cfg.Suggestions)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLitePath == "" {
		t.Errorf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.Geolocation.Provider != "none" {
		t.Errorf("geolocation provider = %q", cfg.Geolocation.Provider)
	}
	if !cfg.HasUsableAPIKey() {
		t.Error("expected configured key to be usable")
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(writeConfig(t, "[gemini]\napi_key = \"from-file\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.Gemini.APIKey)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "[server]\nport = 70000\n"},
		{"bad storage", "[storage]\ntype = \"mongo\"\n"},
		{"postgres without url", "[storage]\ntype = \"postgres\"\n"},
		{"bad provider", "[geolocation]\nprovider = \"gps\"\n"},
		{"bad latitude", "[geolocation]\nprovider = \"static\"\nlatitude = 123.0\n"},
		{"missing prompt", "[gemini]\nweather_prompt_path = \"/nope/weather.tmpl\"\n"},
	}
	t.Setenv("DAILYSKY_POSTGRES_URL", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestIsUsableAPIKey(t *testing.T) {
	tests := map[string]bool{
		"":                    false,
		"   ":                 false,
		"PLACEHOLDER_API_KEY": false,
		"your_api_key_here":   false,
		"AIza-real":           true,
	}
	for key, want := range tests {
		if got := IsUsableAPIKey(key); got != want {
			t.Errorf("IsUsableAPIKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestLoadWithFallbackMissing(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if _, err := LoadWithFallback(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected error when no config exists")
	}
}
