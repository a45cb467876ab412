package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yegors/daily-sky/pkg/logger"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sky.db")

	store, err := NewKVStore(path, "duaTempFavorites", logger.NewNop())
	if err != nil {
		t.Fatalf("NewKVStore: %v", err)
	}

	data, err := store.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("empty Load = %q, %v", data, err)
	}

	if err := store.Save(ctx, []byte(`[{"name":"Paris"}]`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, []byte(`[{"name":"Tokyo"}]`)); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewKVStore(path, "duaTempFavorites", logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	data, err = reopened.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[{"name":"Tokyo"}]` {
		t.Errorf("Load = %s", data)
	}

	other, err := NewKVStore(path, "otherKey", logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if data, _ := other.Load(ctx); data != nil {
		t.Errorf("keys must not share values, got %s", data)
	}
}
