package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/daily-sky/internal/app"
	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/internal/favorites"
	"github.com/yegors/daily-sky/internal/geo"
	"github.com/yegors/daily-sky/internal/weather"
	"github.com/yegors/daily-sky/internal/websocket"
	"github.com/yegors/daily-sky/pkg/logger"
)

// APIKeyHelpURL is where users obtain a Gemini API key
const APIKeyHelpURL = "https://aistudio.google.com/apikey"

// Handler contains the API handlers
type Handler struct {
	controller *app.Controller
	suggester  app.Suggester
	config     *config.Config
	wsServer   *websocket.Server
	logger     *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(controller *app.Controller, suggester app.Suggester, config *config.Config, wsServer *websocket.Server, logger *logger.Logger) *Handler {
	return &Handler{
		controller: controller,
		suggester:  suggester,
		config:     config,
		wsServer:   wsServer,
		logger:     logger.Named("api-handler"),
	}
}

// stateResponse is the view plus display values in the requested unit
type stateResponse struct {
	View    app.View         `json:"view"`
	Display *weather.Display `json:"display,omitempty"`
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *Handler) stateResponse(r *http.Request) stateResponse {
	view := h.controller.State()
	resp := stateResponse{View: view}
	if view.Snapshot != nil {
		display := weather.BuildDisplay(view.Snapshot, weather.ParseUnit(r.URL.Query().Get("unit")))
		resp.Display = &display
	}
	return resp
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	view := h.controller.State()

	response := map[string]any{
		"status":             "ok",
		"api_key_configured": h.config.HasUsableAPIKey(),
		"state":              view.Status,
		"favorites_count":    len(view.Favorites),
		"websocket_clients":  h.wsServer.ClientCount(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	publicConfig := map[string]any{
		"gemini": map[string]any{
			"model":              h.config.Gemini.Model,
			"search_grounding":   h.config.Gemini.SearchGrounding,
			"api_key_configured": h.config.HasUsableAPIKey(),
		},
		"suggestions": map[string]any{
			"min_query_length": h.config.Suggestions.MinQueryLength,
			"count":            h.config.Suggestions.Count,
			"debounce_ms":      h.config.Suggestions.DebounceMs,
		},
		"storage": map[string]any{
			"type": h.config.Storage.Type,
		},
		"geolocation": map[string]any{
			"provider": h.config.Geolocation.Provider,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetState returns the current controller state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.stateResponse(r))
}

// RequestWeather fetches weather for the posted query and returns the new state
func (h *Handler) RequestWeather(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", "bad_request")
		return
	}

	// The controller state is shared, so a client going away must not cancel the fetch
	err := h.controller.RequestWeather(context.WithoutCancel(r.Context()), req.Query)
	h.writeWeatherResult(w, r, err)
}

// RequestCurrentLocation fetches weather for the resolved current position
func (h *Handler) RequestCurrentLocation(w http.ResponseWriter, r *http.Request) {
	err := h.controller.UseCurrentLocation(context.WithoutCancel(r.Context()))
	h.writeWeatherResult(w, r, err)
}

func (h *Handler) writeWeatherResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, h.stateResponse(r))
	case errors.Is(err, app.ErrEmptyQuery):
		WriteError(w, http.StatusBadRequest, "Query is required", "bad_request")
	case errors.Is(err, app.ErrSuperseded):
		WriteError(w, http.StatusConflict, "Request was superseded by a newer one", "superseded")
	case errors.Is(err, geo.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, app.LocationNotice, "geolocation")
	default:
		h.writeFetchError(w, err)
	}
}

// writeFetchError maps weather failures onto HTTP status codes
func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	kind := weather.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case weather.KindCredential:
		status = http.StatusUnauthorized
	case weather.KindPermission:
		status = http.StatusForbidden
	}

	body := map[string]any{
		"error": weather.UserMessage(err),
		"kind":  kind,
	}
	if kind == weather.KindCredential {
		body["help_url"] = APIKeyHelpURL
	}

	h.logger.Debug("Weather request failed", logger.String("kind", string(kind)), logger.Int("status", status))
	WriteJSON(w, status, body)
}

// GetSuggestions returns location suggestions for ?q=
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	suggestions := h.suggester.SuggestLocations(r.Context(), query)

	WriteJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

// GetFavorites returns the saved locations
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"favorites":   h.controller.Favorites(),
		"is_favorite": h.controller.IsCurrentFavorite(),
	})
}

// ToggleFavorite saves or removes the current location
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	isFavorite, err := h.controller.ToggleFavorite(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNoSnapshot) {
			WriteError(w, http.StatusConflict, "Load a location before saving it", "no_weather")
			return
		}
		h.logger.Error("Failed to toggle favorite", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to update favorites", "storage")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"favorites":   h.controller.Favorites(),
		"is_favorite": isFavorite,
	})
}

// DeleteFavorite removes a saved location by ID
func (h *Handler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.RemoveFavorite(r.Context(), id); err != nil {
		h.logger.Error("Failed to remove favorite", logger.String("id", id), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to update favorites", "storage")
		return
	}
	h.GetFavorites(w, r)
}

// SetDefaultFavorite marks a saved location as the default
func (h *Handler) SetDefaultFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.SetDefaultLocation(r.Context(), id); err != nil {
		if errors.Is(err, favorites.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Favorite not found", "not_found")
			return
		}
		h.logger.Error("Failed to set default favorite", logger.String("id", id), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to update favorites", "storage")
		return
	}
	h.GetFavorites(w, r)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a {"error", "kind"} JSON body
func WriteError(w http.ResponseWriter, status int, message, kind string) {
	WriteJSON(w, status, map[string]any{"error": message, "kind": kind})
}
