package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedis(Config{Redis: &RedisConfig{Addr: mr.Addr()}})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func TestRedisStoreLifecycle(t *testing.T) {
	exerciseLifecycle(t, newTestRedis(t))
}

func TestRedisStoreReplace(t *testing.T) {
	exerciseReplace(t, newTestRedis(t))
}

func TestRedisStoreSweep(t *testing.T) {
	exerciseSweep(t, newTestRedis(t))
}

func TestNewRedisConfigErrors(t *testing.T) {
	if _, err := NewRedis(Config{}); err == nil {
		t.Error("expected error when redis config missing")
	}
	if _, err := NewRedis(Config{Redis: &RedisConfig{}}); err == nil {
		t.Error("expected error when redis addr missing")
	}
}
