package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/yegors/daily-sky/pkg/logger"
)

func openManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := Open(context.Background(), store, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

func TestAddFirstIsDefault(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, NewMemoryStore())

	first, err := m.Add(ctx, "Paris, France")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Add(ctx, "Tokyo, Japan")
	if err != nil {
		t.Fatal(err)
	}

	if !first.IsDefault {
		t.Error("first favorite should be the default")
	}
	if second.IsDefault {
		t.Error("second favorite should not be the default")
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("ids are not unique: %q %q", first.ID, second.ID)
	}

	def, ok := m.Default()
	if !ok || def.Name != "Paris, France" {
		t.Errorf("Default() = %+v, %v", def, ok)
	}
}

func TestAddDuplicate(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, NewMemoryStore())

	if _, err := m.Add(ctx, "Oslo"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Add(ctx, "Oslo"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if len(m.List()) != 1 {
		t.Errorf("list = %+v", m.List())
	}
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, NewMemoryStore())

	saved, err := m.Toggle(ctx, "Lima, Peru")
	if err != nil || !saved {
		t.Fatalf("first toggle = %v, %v", saved, err)
	}
	if list := m.List(); len(list) != 1 || !list[0].IsDefault {
		t.Errorf("favorites = %+v", list)
	}

	saved, err = m.Toggle(ctx, "Lima, Peru")
	if err != nil || saved {
		t.Fatalf("second toggle = %v, %v", saved, err)
	}
	if m.Contains("Lima, Peru") {
		t.Error("second toggle should remove the location")
	}
}

func TestSetDefaultIsExclusive(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, NewMemoryStore())

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		loc, err := m.Add(ctx, name)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, loc.ID)
	}

	if err := m.SetDefault(ctx, ids[2]); err != nil {
		t.Fatal(err)
	}

	defaults := 0
	for _, loc := range m.List() {
		if loc.IsDefault {
			defaults++
			if loc.ID != ids[2] {
				t.Errorf("wrong default %+v", loc)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("defaults = %d, want 1", defaults)
	}

	if err := m.SetDefault(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	m := openManager(t, NewMemoryStore())

	a, _ := m.Add(ctx, "A")
	if _, err := m.Add(ctx, "B"); err != nil {
		t.Fatal(err)
	}

	if err := m.Remove(ctx, "unknown"); err != nil {
		t.Errorf("unknown id should be ignored, got %v", err)
	}
	if err := m.Remove(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	list := m.List()
	if len(list) != 1 || list[0].Name != "B" {
		t.Errorf("list = %+v", list)
	}
	if _, ok := m.Default(); ok {
		t.Error("removing the default should leave no default")
	}

	removed, err := m.RemoveByName(ctx, "B")
	if err != nil || !removed {
		t.Errorf("RemoveByName = %v, %v", removed, err)
	}
	removed, err = m.RemoveByName(ctx, "B")
	if err != nil || removed {
		t.Errorf("second RemoveByName = %v, %v", removed, err)
	}
	if m.Contains("B") {
		t.Error("B should be gone")
	}
}

func TestPersistsAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := openManager(t, store)

	loc, _ := m.Add(ctx, "Lima")
	if _, err := m.Add(ctx, "Quito"); err != nil {
		t.Fatal(err)
	}

	reopened := openManager(t, store)
	if len(reopened.List()) != 2 {
		t.Fatalf("reopened list = %+v", reopened.List())
	}

	if err := m.Remove(ctx, loc.ID); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Load(ctx)
	var saved []Location
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].Name != "Quito" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestOpenCorruptValue(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(context.Background(), []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	m := openManager(t, store)
	if list := m.List(); len(list) != 0 {
		t.Errorf("corrupt value should load as empty, got %+v", list)
	}
}

type failingStore struct {
	loadErr error
	saveErr error
}

func (f *failingStore) Load(ctx context.Context) ([]byte, error) { return nil, f.loadErr }
func (f *failingStore) Save(ctx context.Context, data []byte) error { return f.saveErr }

func TestStoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	if _, err := Open(context.Background(), &failingStore{loadErr: boom}, logger.NewNop()); !errors.Is(err, boom) {
		t.Errorf("Open error = %v", err)
	}

	m := openManager(t, &failingStore{saveErr: boom})
	if _, err := m.Add(context.Background(), "Rome"); !errors.Is(err, boom) {
		t.Errorf("Add error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("failed save must not change the in-memory list")
	}
}
