package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/yegors/daily-sky/pkg/logger"
)

var (
	// ErrNotFound is returned when no favorite has the given ID
	ErrNotFound = errors.New("favorite not found")
	// ErrDuplicate is returned when a favorite with the same name already exists
	ErrDuplicate = errors.New("favorite already exists")
)

// Location is a saved place
type Location struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Manager owns the favorites collection. Every mutation rewrites the whole
// collection to the backing store before returning.
type Manager struct {
	store     Store
	locations []Location
	mu        sync.RWMutex
	logger    *logger.Logger
	newID     func() (string, error)
}

// Open loads the saved collection from store. A corrupt saved value is
// logged and treated as an empty collection; store read errors are returned.
func Open(ctx context.Context, store Store, log *logger.Logger) (*Manager, error) {
	m := &Manager{
		store:     store,
		locations: []Location{},
		logger:    log.Named("favorites"),
		newID:     newLocationID,
	}

	data, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	if len(data) == 0 {
		return m, nil
	}

	var saved []Location
	if err := json.Unmarshal(data, &saved); err != nil {
		m.logger.Error("Saved favorites are corrupt, starting with an empty list", logger.Error(err))
		return m, nil
	}
	if saved != nil {
		m.locations = saved
	}

	m.logger.Info("Loaded favorites", logger.Int("count", len(m.locations)))
	return m, nil
}

func newLocationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// List returns a copy of the saved locations in insertion order
func (m *Manager) List() []Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Location, len(m.locations))
	copy(out, m.locations)
	return out
}

// Default returns the default location, if any
func (m *Manager) Default() (Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.IsDefault {
			return loc, true
		}
	}
	return Location{}, false
}

// Contains reports whether a location with exactly this name is saved
func (m *Manager) Contains(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexByName(name) >= 0
}

// Add appends a new location. The first location saved becomes the default.
func (m *Manager) Add(ctx context.Context, name string) (Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexByName(name) >= 0 {
		return Location{}, ErrDuplicate
	}
	return m.addLocked(ctx, name)
}

// Toggle removes the location named name when saved and adds it otherwise,
// under one lock. It reports whether the location is saved afterwards.
func (m *Manager) Toggle(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexByName(name); i >= 0 {
		if err := m.removeAt(ctx, i); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := m.addLocked(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// addLocked must be called with the write lock held
func (m *Manager) addLocked(ctx context.Context, name string) (Location, error) {
	id, err := m.newID()
	if err != nil {
		return Location{}, fmt.Errorf("failed to generate favorite id: %w", err)
	}

	loc := Location{ID: id, Name: name, IsDefault: len(m.locations) == 0}
	next := append(append([]Location(nil), m.locations...), loc)
	if err := m.persist(ctx, next); err != nil {
		return Location{}, err
	}

	m.logger.Info("Added favorite", logger.String("name", name), logger.Bool("default", loc.IsDefault))
	return loc, nil
}

// RemoveByName removes the location with this name. It reports whether one was removed.
func (m *Manager) RemoveByName(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexByName(name)
	if i < 0 {
		return false, nil
	}
	return true, m.removeAt(ctx, i)
}

// Remove removes the location with this ID. Unknown IDs are ignored.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, loc := range m.locations {
		if loc.ID == id {
			return m.removeAt(ctx, i)
		}
	}
	return nil
}

// SetDefault makes id the only default location
func (m *Manager) SetDefault(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	next := make([]Location, len(m.locations))
	for i, loc := range m.locations {
		loc.IsDefault = loc.ID == id
		found = found || loc.IsDefault
		next[i] = loc
	}
	if !found {
		return ErrNotFound
	}

	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.logger.Info("Set default favorite", logger.String("id", id))
	return nil
}

// removeAt must be called with the write lock held. Removing the default
// leaves the collection without one.
func (m *Manager) removeAt(ctx context.Context, i int) error {
	removed := m.locations[i]
	next := make([]Location, 0, len(m.locations)-1)
	next = append(next, m.locations[:i]...)
	next = append(next, m.locations[i+1:]...)
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.logger.Info("Removed favorite", logger.String("name", removed.Name))
	return nil
}

// persist writes next to the store and adopts it only on success
func (m *Manager) persist(ctx context.Context, next []Location) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := m.store.Save(ctx, data); err != nil {
		m.logger.Error("Failed to save favorites", logger.Error(err))
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	m.locations = next
	return nil
}

func (m *Manager) indexByName(name string) int {
	for i, loc := range m.locations {
		if loc.Name == name {
			return i
		}
	}
	return -1
}
