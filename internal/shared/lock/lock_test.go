package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	evals  int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	client := newFakeRedis()
	l := NewRedis(client, time.Minute)
	l.retry = time.Millisecond

	release, err := l.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, ok := client.values["smartpdf:lock:doc-1"]; !ok {
		t.Fatalf("expected prefixed key to be set")
	}
	release()
	if len(client.values) != 0 {
		t.Fatalf("expected key removed on release, got %v", client.values)
	}
}

func TestRedisLockerWaitsForHolder(t *testing.T) {
	client := newFakeRedis()
	l := NewRedis(client, time.Minute)
	l.retry = time.Millisecond

	release, err := l.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r2, err := l.Acquire(context.Background(), "doc-1")
		if err == nil {
			r2()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the lock is held")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestRedisLockerHonorsContext(t *testing.T) {
	client := newFakeRedis()
	client.values["smartpdf:lock:doc-1"] = "someone-else"
	l := NewRedis(client, time.Minute)
	l.retry = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "doc-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestReleaseLeavesForeignToken(t *testing.T) {
	client := newFakeRedis()
	l := NewRedis(client, time.Minute)
	release, err := l.Acquire(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Simulate expiry and takeover by another holder.
	client.values["smartpdf:lock:doc-1"] = "other"
	release()
	if client.values["smartpdf:lock:doc-1"] != "other" {
		t.Fatalf("release removed a lock it no longer owns")
	}
}

func TestNopAcquire(t *testing.T) {
	release, err := Nop{}.Acquire(context.Background(), "x")
	if err != nil || release == nil {
		t.Fatalf("unexpected result: %v", err)
	}
	release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Nop{}).Acquire(ctx, "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
