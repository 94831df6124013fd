package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Runs against a real server when FACECAPTURE_TEST_REDIS is set,
// e.g. FACECAPTURE_TEST_REDIS=localhost:6379.
func TestRedisStoreCRUD(t *testing.T) {
	addr := os.Getenv("FACECAPTURE_TEST_REDIS")
	if addr == "" {
		t.Skip("FACECAPTURE_TEST_REDIS not set")
	}

	ctx := context.Background()
	log := logger.New(logger.LevelOff, nil)
	prefix := "facecapture-test-" + uuid.NewString()
	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr, KeyPrefix: prefix}, log)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	rec := testRecord("rec-1", time.Now().UTC().Truncate(time.Second))
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "rec-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Complete() || !loaded.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", loaded)
	}

	recs, err := store.List(ctx)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d (%v)", len(recs), err)
	}

	if err := store.Delete(ctx, "rec-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "rec-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "rec-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRedisKeys(t *testing.T) {
	s := NewRedisStoreWithClient(nil, "", logger.New(logger.LevelOff, nil))
	if got := s.recordKey("abc"); got != "facecapture:record:abc" {
		t.Fatalf("unexpected record key %q", got)
	}
	if got := s.indexKey(); got != "facecapture:records" {
		t.Fatalf("unexpected index key %q", got)
	}
}
