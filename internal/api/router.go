package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yegors/daily-sky/internal/app"
	"github.com/yegors/daily-sky/internal/config"
	"github.com/yegors/daily-sky/internal/websocket"
	"github.com/yegors/daily-sky/pkg/logger"
)

// Router wires the HTTP handlers
type Router struct {
	handler  *Handler
	config   *config.Config
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates a new router
func NewRouter(controller *app.Controller, suggester app.Suggester, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(controller, suggester, cfg, wsServer, log),
		config:   cfg,
		wsServer: wsServer,
		logger:   log.Named("router"),
	}
}

// Routes returns the root handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.handler.GetHealth)
		r.Get("/config", rt.handler.GetConfig)
		r.Get("/state", rt.handler.GetState)
		r.Get("/suggestions", rt.handler.GetSuggestions)

		r.Route("/weather", func(r chi.Router) {
			r.Post("/", rt.handler.RequestWeather)
			r.Post("/current-location", rt.handler.RequestCurrentLocation)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", rt.handler.GetFavorites)
			r.Post("/toggle", rt.handler.ToggleFavorite)
			r.Delete("/{id}", rt.handler.DeleteFavorite)
			r.Put("/{id}/default", rt.handler.SetDefaultFavorite)
		})
	})

	r.Get("/ws", rt.wsServer.HandleConnection)

	if dir := rt.config.Server.StaticFilesDir; dir != "" {
		rt.logger.Info("Serving static files", logger.String("dir", dir))
		r.Handle("/*", NewStaticFileHandler(dir, rt.logger))
	}

	return r
}

func (rt *Router) allowedOrigins() []string {
	if len(rt.config.Server.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return rt.config.Server.CORSAllowedOrigins
}

// requestLogger logs each request through the application logger
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		rt.logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())))
	})
}
