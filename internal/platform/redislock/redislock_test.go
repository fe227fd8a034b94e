package redislock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

func TestNoopAlwaysGrants(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "course:1")
	if err != nil || release == nil {
		t.Fatalf("Noop: err=%v", err)
	}
	release()
	if _, err := (Noop{}).Acquire(context.Background(), "course:1"); err != nil {
		t.Fatalf("Noop second acquire: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PRESET_LOCK_TTL", "3s")
	t.Setenv("PRESET_LOCK_WAIT", "")
	cfg := ConfigFromEnv(nil)
	if cfg.Addr != "localhost:6379" || cfg.TTL != 3*time.Second || cfg.Wait != 2*time.Second {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

// Runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisLockExclusive(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	l, err := New(ctx, logger.NewNop(), Config{Addr: addr, Prefix: "test:" + uuid.NewString() + ":", TTL: 5 * time.Second, Wait: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	release, err := l.Acquire(ctx, "course")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := l.Acquire(ctx, "course"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second Acquire: expected ErrLockHeld, got %v", err)
	}
	release()
	release2, err := l.Acquire(ctx, "course")
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	release2()
}
