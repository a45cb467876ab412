package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yegors/daily-sky/internal/debounce"
	"github.com/yegors/daily-sky/internal/weather"
	"github.com/yegors/daily-sky/internal/websocket"
	"github.com/yegors/daily-sky/pkg/logger"
)

// Suggester produces location suggestions for a partial query
type Suggester interface {
	ShouldSuggest(partial string) bool
	SuggestLocations(ctx context.Context, partial string) []string
}

// WebSocketHandler pushes controller events to clients and serves their
// suggest and submit messages
type WebSocketHandler struct {
	controller *Controller
	suggester  Suggester
	server     *websocket.Server
	delay      time.Duration
	logger     *logger.Logger

	mu         sync.Mutex
	debouncers map[*websocket.Client]*debounce.Debouncer[string]
}

// NewWebSocketHandler creates a handler and subscribes it to controller events
func NewWebSocketHandler(controller *Controller, suggester Suggester, server *websocket.Server, delay time.Duration, log *logger.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		controller: controller,
		suggester:  suggester,
		server:     server,
		delay:      delay,
		logger:     log.Named("app-ws-handler"),
		debouncers: make(map[*websocket.Client]*debounce.Debouncer[string]),
	}
	controller.Subscribe(h.broadcastEvent)
	return h
}

// ClientConnected sends the current state to a new client
func (h *WebSocketHandler) ClientConnected(client *websocket.Client) {
	client.SendMessage(stateMessage(h.controller.State()))
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeSuggest:
		query, _ := data["query"].(string)
		h.handleSuggest(client, query)
		return nil
	case websocket.MessageTypeSubmit:
		query, _ := data["query"].(string)
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("submit requires a query")
		}
		h.controller.Submit(query)
		return nil
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}
}

// ClientDisconnected stops the client's pending suggestion lookup
func (h *WebSocketHandler) ClientDisconnected(client *websocket.Client) {
	h.mu.Lock()
	d := h.debouncers[client]
	delete(h.debouncers, client)
	h.mu.Unlock()

	if d != nil {
		d.Stop()
	}
}

// handleSuggest debounces lookups per client. Short input clears the
// client's suggestions at once without a lookup.
func (h *WebSocketHandler) handleSuggest(client *websocket.Client, query string) {
	d := h.debouncerFor(client)

	if !h.suggester.ShouldSuggest(query) {
		d.Cancel()
		client.SendMessage(suggestionsMessage(query, []string{}))
		return
	}
	d.Trigger(query)
}

func (h *WebSocketHandler) debouncerFor(client *websocket.Client) *debounce.Debouncer[string] {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.debouncers[client]
	if !ok {
		d = debounce.New(h.delay, func(ctx context.Context, query string) {
			suggestions := h.suggester.SuggestLocations(ctx, query)
			if ctx.Err() != nil {
				return
			}
			client.SendMessage(suggestionsMessage(query, suggestions))
		})
		h.debouncers[client] = d
	}
	return d
}

// broadcastEvent relays controller events to every client
func (h *WebSocketHandler) broadcastEvent(ev Event) {
	switch ev.Type {
	case EventState:
		h.server.Broadcast(stateMessage(*ev.View))
	case EventNotice:
		h.server.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeNotice,
			Data: map[string]any{"message": ev.Notice},
		})
	}
}

func stateMessage(v View) *websocket.Message {
	data := map[string]any{"view": v}
	if v.Snapshot != nil {
		data["display"] = weather.BuildDisplay(v.Snapshot, weather.Celsius)
	}
	return &websocket.Message{Type: websocket.MessageTypeState, Data: data}
}

func suggestionsMessage(query string, suggestions []string) *websocket.Message {
	return &websocket.Message{
		Type: websocket.MessageTypeSuggestions,
		Data: map[string]any{"query": query, "suggestions": suggestions},
	}
}
