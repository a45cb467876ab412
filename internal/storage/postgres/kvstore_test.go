package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/yegors/daily-sky/pkg/logger"
)

func TestKVStoreRoundTrip(t *testing.T) {
	url := os.Getenv("DAILYSKY_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("DAILYSKY_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())

	store, err := NewKVStore(ctx, url, key, logger.NewNop())
	if err != nil {
		t.Fatalf("NewKVStore: %v", err)
	}
	defer store.Close()
	defer store.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)

	data, err := store.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("empty Load = %q, %v", data, err)
	}

	for _, v := range []string{`["a"]`, `["b"]`} {
		if err := store.Save(ctx, []byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	data, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["b"]` {
		t.Errorf("Load = %s", data)
	}
}
