package prompts

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"sync"
	"text/template"

	"github.com/yegors/daily-sky/pkg/logger"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Template names
const (
	Weather     = "weather"
	Suggestions = "suggestions"
)

// WeatherData is the data rendered into the weather prompt
type WeatherData struct {
	Query        string
	HourlyHours  string // e.g. "10-12"
	ForecastDays int
}

// SuggestionData is the data rendered into the suggestion prompt
type SuggestionData struct {
	Query string
	Count int
}

// Engine handles template loading, caching, and rendering
type Engine struct {
	overrides     map[string]string // template name -> file path
	templateCache map[string]*template.Template
	cacheMutex    sync.RWMutex
	logger        *logger.Logger
}

// NewEngine creates a new prompt engine. overrides maps template names to files
// that replace the built-in templates; empty paths are ignored.
func NewEngine(overrides map[string]string, log *logger.Logger) *Engine {
	clean := make(map[string]string, len(overrides))
	for name, path := range overrides {
		if path != "" {
			clean[name] = path
		}
	}
	return &Engine{
		overrides:     clean,
		templateCache: make(map[string]*template.Template),
		logger:        log.Named("prompt-engine"),
	}
}

// RenderWeather renders the weather acquisition prompt
func (e *Engine) RenderWeather(data WeatherData) (string, error) {
	if data.HourlyHours == "" {
		data.HourlyHours = "10-12"
	}
	if data.ForecastDays <= 0 {
		data.ForecastDays = 7
	}
	return e.Render(Weather, data)
}

// RenderSuggestions renders the location autocomplete prompt
func (e *Engine) RenderSuggestions(data SuggestionData) (string, error) {
	if data.Count <= 0 {
		data.Count = 5
	}
	return e.Render(Suggestions, data)
}

// Render executes the named template with data
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", fmt.Errorf("failed to get template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	rendered := buf.String()
	e.logger.Debug("Prompt rendered",
		logger.String("template", name),
		logger.Int("rendered_length", len(rendered)))

	return rendered, nil
}

// getTemplate retrieves a template from cache or loads it
func (e *Engine) getTemplate(name string) (*template.Template, error) {
	e.cacheMutex.RLock()
	if tmpl, exists := e.templateCache[name]; exists {
		e.cacheMutex.RUnlock()
		return tmpl, nil
	}
	e.cacheMutex.RUnlock()

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	// Double-check after acquiring write lock
	if tmpl, exists := e.templateCache[name]; exists {
		return tmpl, nil
	}

	tmpl, err := e.loadTemplate(name)
	if err != nil {
		return nil, err
	}
	e.templateCache[name] = tmpl
	return tmpl, nil
}

func (e *Engine) loadTemplate(name string) (*template.Template, error) {
	var (
		content []byte
		err     error
		source  string
	)
	if path, ok := e.overrides[name]; ok {
		content, err = os.ReadFile(path)
		source = path
	} else {
		source = "templates/" + name + ".tmpl"
		content, err = builtin.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", source, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", source, err)
	}

	e.logger.Debug("Template loaded", logger.String("template", name), logger.String("source", source))
	return tmpl, nil
}

// ReloadAll drops every cached template so the next render reads them again
func (e *Engine) ReloadAll() {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	e.templateCache = make(map[string]*template.Template)
	e.logger.Info("Prompt templates cache cleared")
}

// WatchReload clears the template cache each time reload fires, until ctx ends
// (the server wires it to SIGHUP)
func (e *Engine) WatchReload(ctx context.Context, reload <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-reload:
			e.logger.Info("Reloading prompt templates", logger.String("signal", sig.String()))
			e.ReloadAll()
		}
	}
}
