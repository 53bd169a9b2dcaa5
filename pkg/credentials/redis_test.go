package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client on a separate DB and skips the
// test when no local Redis is available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisSource_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisSource should panic with nil redis client")
		}
	}()
	NewRedisSource(nil, "default")
}

func TestRedisSource_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	if got := NewRedisSource(client, "shop-1").Key(); got != "wb:credentials:shop-1" {
		t.Errorf("Key() = %q", got)
	}
	if got := NewRedisSource(client, "").Key(); got != "wb:credentials:default" {
		t.Errorf("Key() = %q, want default profile", got)
	}
}

func TestRedisSource_StoreAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	source := NewRedisSource(client, "shop-1")
	ctx := context.Background()

	want := Connector{APIKey: "redis-key", Scopes: []string{"marketplace", "supplies"}}
	if err := source.Store(ctx, want); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := source.Connector(ctx)
	if err != nil {
		t.Fatalf("Connector() error = %v", err)
	}
	if got.APIKey != want.APIKey {
		t.Errorf("APIKey = %q, want %q", got.APIKey, want.APIKey)
	}
	if len(got.Scopes) != 2 || got.Scopes[0] != "marketplace" || got.Scopes[1] != "supplies" {
		t.Errorf("Scopes = %v", got.Scopes)
	}

	// Store replaces previous fields.
	if err := source.Store(ctx, Connector{APIKey: "rotated"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err = source.Connector(ctx)
	if err != nil {
		t.Fatalf("Connector() error = %v", err)
	}
	if got.APIKey != "rotated" || len(got.Scopes) != 0 {
		t.Errorf("Connector() after rotate = %+v", got)
	}
}

func TestRedisSource_Missing(t *testing.T) {
	client := setupTestRedis(t)
	source := NewRedisSource(client, "absent")

	_, err := source.Connector(context.Background())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}

func TestRedisSource_Delete(t *testing.T) {
	client := setupTestRedis(t)
	source := NewRedisSource(client, "to-delete")
	ctx := context.Background()

	if err := source.Store(ctx, Connector{APIKey: "k"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := source.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := source.Connector(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error after delete = %v, want ErrNoCredentials", err)
	}
}

func TestRedisSource_StoreEmpty(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	err := NewRedisSource(client, "x").Store(context.Background(), Connector{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v, want ErrNoCredentials", err)
	}
}
