package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestNewLock_HolderTokens(t *testing.T) {
	client, _ := setupTestRedis(t)

	a := NewLock(client)
	b := NewLock(client)
	if a.Holder() == "" {
		t.Fatal("expected non-empty holder token")
	}
	if a.Holder() == b.Holder() {
		t.Errorf("expected distinct holder tokens, both %q", a.Holder())
	}
}

func TestLock_AcquireExclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "index:book-1:cfg-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if got, _ := mr.Get(lockKeyPrefix + "index:book-1:cfg-1"); got != first.Holder() {
		t.Errorf("stored holder = %q, want %q", got, first.Holder())
	}

	ok, err = second.Acquire(ctx, "index:book-1:cfg-1", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Error("second holder should not acquire a held lock")
	}

	// Other names are independent.
	ok, err = second.Acquire(ctx, "index:book-1:cfg-2", time.Minute)
	if err != nil || !ok {
		t.Errorf("acquire other name: ok=%v err=%v", ok, err)
	}
}

func TestLock_ReleaseOnlyByHolder(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	owner := NewLock(client)
	other := NewLock(client)

	if _, err := owner.Acquire(ctx, "run", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := other.Release(ctx, "run"); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if !mr.Exists(lockKeyPrefix + "run") {
		t.Fatal("foreign release removed the lock")
	}

	if err := owner.Release(ctx, "run"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists(lockKeyPrefix + "run") {
		t.Error("lock still present after release")
	}

	// Releasing a free lock is fine.
	if err := owner.Release(ctx, "run"); err != nil {
		t.Errorf("release of free lock: %v", err)
	}
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	first := NewLock(client)
	if _, err := first.Acquire(ctx, "run", time.Second); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Second)

	ok, err := NewLock(client).Acquire(ctx, "run", time.Second)
	if err != nil || !ok {
		t.Errorf("acquire after expiry: ok=%v err=%v", ok, err)
	}
}

func TestLock_Extend(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	owner := NewLock(client)
	if _, err := owner.Acquire(ctx, "run", time.Second); err != nil {
		t.Fatal(err)
	}
	if err := owner.Extend(ctx, "run", time.Minute); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if ttl := mr.TTL(lockKeyPrefix + "run"); ttl < 30*time.Second {
		t.Errorf("ttl after extend = %v", ttl)
	}

	if err := NewLock(client).Extend(ctx, "run", time.Minute); err == nil {
		t.Error("expected error extending a lock held by someone else")
	}
	if err := owner.Extend(ctx, "missing", time.Minute); err == nil {
		t.Error("expected error extending a lock never taken")
	}
}

func TestLock_Ping(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping error with server down")
	}
}
