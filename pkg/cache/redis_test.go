package cache

import (
	"context"
	"os"
	"testing"

	"github.com/ghuser/auctiondesk/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{
		RedisURL: url,
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

// Integration tests — skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	newClient := func(t *testing.T) *RedisClient {
		t.Helper()
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Cleanup(func() { _ = rc.Close() })
		return rc
	}

	t.Run("Ping_Success", func(t *testing.T) {
		rc := newClient(t)
		if err := rc.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("Snapshot_RoundTrip", func(t *testing.T) {
		rc := newClient(t)
		snaps := NewSnapshotStore(rc)
		ctx := context.Background()

		type row struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		want := []row{{ID: "001", Name: "Signed Jersey"}}

		key := "auctiondesk:test:snapshot"
		if err := snaps.Save(ctx, key, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		defer rc.Client().Del(ctx, key)

		var got []row
		if err := snaps.Load(ctx, key, &got); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 1 || got[0] != want[0] {
			t.Fatalf("round trip = %+v, want %+v", got, want)
		}
	})

	t.Run("Snapshot_Missing", func(t *testing.T) {
		rc := newClient(t)
		snaps := NewSnapshotStore(rc)

		var dest []string
		err := snaps.Load(context.Background(), "auctiondesk:test:never-written", &dest)
		if err == nil {
			t.Fatal("expected ErrNoSnapshot, got nil")
		}
	})
}
