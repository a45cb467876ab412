package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Placeholder values that ship in sample env files and never work upstream
var placeholderKeys = []string{"PLACEHOLDER_API_KEY", "your_api_key_here"}

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	Gemini      GeminiConfig      `toml:"gemini"`      // Generation API settings
	Suggestions SuggestionsConfig `toml:"suggestions"` // Location autocomplete settings
	Storage     StorageConfig     `toml:"storage"`     // Favorites persistence settings
	Geolocation GeolocationConfig `toml:"geolocation"` // Current location lookup settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve the front-end from (optional)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// GeminiConfig contains settings for the generation API
type GeminiConfig struct {
	APIKey                string  `toml:"api_key"`                 // API key; GEMINI_API_KEY / API_KEY override it
	Model                 string  `toml:"model"`                   // Model used for both weather and suggestions
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"` // Upper bound for a single generation call
	SearchGrounding       bool    `toml:"search_grounding"`        // Enable Google Search grounding for weather calls
	RequestsPerSecond     float64 `toml:"requests_per_second"`     // Client-side rate limit for generation calls
	Burst                 int     `toml:"burst"`                   // Rate limiter burst size
	WeatherPromptPath     string  `toml:"weather_prompt_path"`     // Optional template overriding the built-in weather prompt
	SuggestionPromptPath  string  `toml:"suggestion_prompt_path"`  // Optional template overriding the built-in suggestion prompt
}

// SuggestionsConfig contains location autocomplete settings
type SuggestionsConfig struct {
	MinQueryLength int `toml:"min_query_length"` // Queries shorter than this never reach the API
	Count          int `toml:"count"`            // Number of suggestions requested
	DebounceMs     int `toml:"debounce_ms"`      // Typing pause before a suggestion call fires
}

// StorageConfig contains favorites persistence configuration
type StorageConfig struct {
	Type        string `toml:"type"`         // "sqlite" or "postgres"
	SQLitePath  string `toml:"sqlite_path"`  // Database file for the sqlite backend
	PostgresURL string `toml:"postgres_url"` // Connection string for the postgres backend
}

// GeolocationConfig contains settings for resolving the current position
type GeolocationConfig struct {
	Provider       string  `toml:"provider"`        // "static", "ip" or "none"
	Latitude       float64 `toml:"latitude"`        // Used by the static provider
	Longitude      float64 `toml:"longitude"`       // Used by the static provider
	IPLookupURL    string  `toml:"ip_lookup_url"`   // Endpoint used by the ip provider
	TimeoutSeconds int     `toml:"timeout_seconds"` // HTTP timeout for the ip provider
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// Local env files win over .env; missing files are fine
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// applyEnv lets the environment override secrets kept out of the config file
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if url := os.Getenv("DAILYSKY_POSTGRES_URL"); url != "" {
		c.Storage.PostgresURL = url
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be 0 or greater")
	}
	if c.Server.StaticFilesDir != "" {
		if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
			return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if err := c.ValidateGemini(); err != nil {
		return err
	}
	if err := c.ValidateSuggestions(); err != nil {
		return err
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	return c.ValidateGeolocation()
}

// ValidateGemini checks generation settings. A missing key is not an error here:
// the weather service reports it to the user on the first fetch.
func (c *Config) ValidateGemini() error {
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.RequestTimeoutSeconds == 0 {
		c.Gemini.RequestTimeoutSeconds = 60
	}
	if c.Gemini.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("gemini.request_timeout_seconds must be greater than 0")
	}
	if c.Gemini.RequestsPerSecond == 0 {
		c.Gemini.RequestsPerSecond = 2
	}
	if c.Gemini.RequestsPerSecond < 0 {
		return fmt.Errorf("gemini.requests_per_second must be greater than 0")
	}
	if c.Gemini.Burst <= 0 {
		c.Gemini.Burst = 4
	}
	for _, path := range []string{c.Gemini.WeatherPromptPath, c.Gemini.SuggestionPromptPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("prompt template not readable: %s: %w", path, err)
		}
	}
	return nil
}

// ValidateSuggestions fills autocomplete defaults
func (c *Config) ValidateSuggestions() error {
	if c.Suggestions.MinQueryLength <= 0 {
		c.Suggestions.MinQueryLength = 3
	}
	if c.Suggestions.Count <= 0 {
		c.Suggestions.Count = 5
	}
	if c.Suggestions.DebounceMs < 0 {
		return fmt.Errorf("suggestions.debounce_ms must be 0 or greater")
	}
	if c.Suggestions.DebounceMs == 0 {
		c.Suggestions.DebounceMs = 500
	}
	return nil
}

// ValidateStorage checks the favorites backend selection
func (c *Config) ValidateStorage() error {
	switch c.Storage.Type {
	case "", "sqlite":
		c.Storage.Type = "sqlite"
		if c.Storage.SQLitePath == "" {
			c.Storage.SQLitePath = "data/daily-sky.db"
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage.postgres_url is required when storage.type is postgres")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be sqlite or postgres)", c.Storage.Type)
	}
	return nil
}

// ValidateGeolocation checks the current-location provider settings
func (c *Config) ValidateGeolocation() error {
	switch c.Geolocation.Provider {
	case "", "none":
		c.Geolocation.Provider = "none"
	case "static":
		if c.Geolocation.Latitude < -90 || c.Geolocation.Latitude > 90 {
			return fmt.Errorf("invalid geolocation.latitude: %f", c.Geolocation.Latitude)
		}
		if c.Geolocation.Longitude < -180 || c.Geolocation.Longitude > 180 {
			return fmt.Errorf("invalid geolocation.longitude: %f", c.Geolocation.Longitude)
		}
	case "ip":
		if c.Geolocation.IPLookupURL == "" {
			c.Geolocation.IPLookupURL = "http://ip-api.com/json/"
		}
	default:
		return fmt.Errorf("invalid geolocation provider: %s (must be static, ip or none)", c.Geolocation.Provider)
	}
	if c.Geolocation.TimeoutSeconds <= 0 {
		c.Geolocation.TimeoutSeconds = 5
	}
	return nil
}

// HasUsableAPIKey reports whether the configured key looks like a real credential
func (c *Config) HasUsableAPIKey() bool {
	return IsUsableAPIKey(c.Gemini.APIKey)
}

// IsUsableAPIKey reports whether key is non-empty and not a known placeholder
func IsUsableAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	for _, p := range placeholderKeys {
		if key == p {
			return false
		}
	}
	return true
}
