package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yegors/daily-sky/internal/favorites"
	"github.com/yegors/daily-sky/internal/geo"
	"github.com/yegors/daily-sky/internal/weather"
	"github.com/yegors/daily-sky/pkg/logger"
)

// Status is the controller's acquisition state
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event types delivered to subscribers
const (
	EventState  = "state"
	EventNotice = "notice"
)

// LocationNotice is published when the current position cannot be resolved
const LocationNotice = "Unable to retrieve your location"

var (
	// ErrEmptyQuery is returned for blank weather queries
	ErrEmptyQuery = errors.New("query is empty")
	// ErrSuperseded is returned when a newer request replaced this one before it finished
	ErrSuperseded = errors.New("request superseded by a newer one")
	// ErrNoSnapshot is returned by favorite toggling before any weather has loaded
	ErrNoSnapshot = errors.New("no weather loaded")
)

// WeatherFetcher acquires a snapshot for a query
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, query string) (*weather.Snapshot, error)
}

// View is an immutable copy of the controller state
type View struct {
	Status       Status               `json:"status"`
	Query        string               `json:"query,omitempty"`
	Error        string               `json:"error,omitempty"`
	ErrorKind    weather.ErrorKind    `json:"error_kind,omitempty"`
	Snapshot     *weather.Snapshot    `json:"snapshot,omitempty"`
	Theme        Theme                `json:"theme"`
	Favorites    []favorites.Location `json:"favorites"`
	IsFavorite   bool                 `json:"is_favorite"`
	RequestToken uint64               `json:"request_token"`
}

// Event is delivered to subscribers after every transition
type Event struct {
	Type   string `json:"type"`
	View   *View  `json:"view,omitempty"`
	Notice string `json:"notice,omitempty"`
}

// Controller drives the single-session weather state machine
type Controller struct {
	fetcher   WeatherFetcher
	favorites *favorites.Manager
	locator   geo.Provider
	logger    *logger.Logger

	mu       sync.RWMutex
	status   Status
	query    string
	errMsg   string
	errKind  weather.ErrorKind
	snapshot *weather.Snapshot
	theme    Theme
	seq      uint64
	closed   bool

	listenersMu  sync.RWMutex
	listeners    map[int]func(Event)
	nextListener int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates a controller in the idle state
func NewController(fetcher WeatherFetcher, favs *favorites.Manager, locator geo.Provider, log *logger.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:   fetcher,
		favorites: favs,
		locator:   locator,
		logger:    log.Named("app-controller"),
		status:    StatusIdle,
		theme:     ThemeDefault,
		listeners: make(map[int]func(Event)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Mount loads the default favorite, or falls back to the current position
func (c *Controller) Mount(ctx context.Context) error {
	if def, ok := c.favorites.Default(); ok {
		c.logger.Info("Loading default location", logger.String("name", def.Name))
		return c.RequestWeather(ctx, def.Name)
	}
	return c.UseCurrentLocation(ctx)
}

// UseCurrentLocation resolves the current position and requests its weather.
// A failed lookup leaves the state untouched and publishes a notice.
func (c *Controller) UseCurrentLocation(ctx context.Context) error {
	coords, err := c.locator.Locate(ctx)
	if err != nil {
		c.logger.Warn("Geolocation failed", logger.Error(err))
		c.publish(Event{Type: EventNotice, Notice: LocationNotice})
		return fmt.Errorf("locate: %w", err)
	}
	return c.RequestWeather(ctx, coords.Query())
}

// RequestWeather fetches weather for query and applies the result unless a
// newer request was issued meanwhile
func (c *Controller) RequestWeather(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	c.mu.Lock()
	c.seq++
	token := c.seq
	c.status = StatusLoading
	c.query = query
	c.errMsg = ""
	c.errKind = ""
	c.mu.Unlock()
	c.publishState()

	snapshot, err := c.fetcher.FetchWeather(ctx, query)

	c.mu.Lock()
	if token != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.logger.Debug("Discarding stale weather result",
			logger.String("query", query),
			logger.Uint64("token", token),
			logger.Uint64("latest", latest))
		return ErrSuperseded
	}

	if err != nil {
		c.status = StatusError
		c.errMsg = weather.UserMessage(err)
		c.errKind = weather.KindOf(err)
	} else {
		c.status = StatusSuccess
		c.snapshot = snapshot
		c.theme = DeriveTheme(snapshot)
	}
	c.mu.Unlock()
	c.publishState()

	return err
}

// Submit runs RequestWeather in the background. Close waits for it.
func (c *Controller) Submit(query string) {
	c.goTracked(func(ctx context.Context) {
		if err := c.RequestWeather(ctx, query); err != nil && !errors.Is(err, ErrSuperseded) {
			c.logger.Debug("Background weather request failed", logger.Error(err))
		}
	})
}

// MountAsync runs Mount in the background. Close waits for it.
func (c *Controller) MountAsync() {
	c.goTracked(func(ctx context.Context) {
		if err := c.Mount(ctx); err != nil {
			c.logger.Warn("Initial weather load did not complete", logger.Error(err))
		}
	})
}

// goTracked runs fn on the controller context unless Close has been called
func (c *Controller) goTracked(fn func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

// ToggleFavorite saves the current location, or removes it when already saved.
// It reports whether the location is now a favorite.
func (c *Controller) ToggleFavorite(ctx context.Context) (bool, error) {
	c.mu.RLock()
	snapshot := c.snapshot
	c.mu.RUnlock()
	if snapshot == nil {
		return false, ErrNoSnapshot
	}

	saved, err := c.favorites.Toggle(ctx, snapshot.LocationName)
	if err != nil {
		return saved, err
	}
	c.publishState()
	return saved, nil
}

// RemoveFavorite deletes a saved location by ID
func (c *Controller) RemoveFavorite(ctx context.Context, id string) error {
	if err := c.favorites.Remove(ctx, id); err != nil {
		return err
	}
	c.publishState()
	return nil
}

// SetDefaultLocation marks id as the location loaded on start
func (c *Controller) SetDefaultLocation(ctx context.Context, id string) error {
	if err := c.favorites.SetDefault(ctx, id); err != nil {
		return err
	}
	c.publishState()
	return nil
}

// IsCurrentFavorite reports whether the current location is saved
func (c *Controller) IsCurrentFavorite() bool {
	c.mu.RLock()
	snapshot := c.snapshot
	c.mu.RUnlock()
	return snapshot != nil && c.favorites.Contains(snapshot.LocationName)
}

// Favorites returns the saved locations
func (c *Controller) Favorites() []favorites.Location {
	return c.favorites.List()
}

// State returns a copy of the current state
func (c *Controller) State() View {
	c.mu.RLock()
	v := View{
		Status:       c.status,
		Query:        c.query,
		Error:        c.errMsg,
		ErrorKind:    c.errKind,
		Snapshot:     c.snapshot,
		Theme:        c.theme,
		RequestToken: c.seq,
	}
	c.mu.RUnlock()

	v.Favorites = c.favorites.List()
	if v.Snapshot != nil {
		v.IsFavorite = c.favorites.Contains(v.Snapshot.LocationName)
	}
	return v
}

// Subscribe registers fn for every event and returns a function that removes it
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.listenersMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

// Close cancels background requests and waits for them to finish
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) publishState() {
	v := c.State()
	c.publish(Event{Type: EventState, View: &v})
}

// publish calls listeners outside of the state lock
func (c *Controller) publish(ev Event) {
	c.listenersMu.RLock()
	fns := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
