package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/ports"
)

func TestOwnerLocks_NoLeak(t *testing.T) {
	locks := newOwnerLocks()
	count := 10000

	// Acquire and release many distinct owners; entries must be collected.
	for i := 0; i < count; i++ {
		owner := fmt.Sprintf("owner-%d", i)
		entry := locks.acquire(owner)
		entry.mu.Lock()
		entry.mu.Unlock()
		locks.release(owner)
	}

	remaining := len(locks.locks)
	t.Logf("Owners Locked: %d, Entries Remaining: %d", count, remaining)
	if remaining != 0 {
		t.Errorf("Memory Leak Detected: %d lock entries remaining after release", remaining)
	}
}

func TestOwnerLocks_RefCountUnderContention(t *testing.T) {
	locks := newOwnerLocks()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := locks.acquire("shared")
			entry.mu.Lock()
			entry.mu.Unlock()
			locks.release("shared")
		}()
	}
	wg.Wait()

	if len(locks.locks) != 0 {
		t.Errorf("expected no entries after all holders released, got %d", len(locks.locks))
	}
}

// countingLocker records distributed lock traffic.
type countingLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
}

func (c *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	c.mu.Lock()
	c.locked++
	c.mu.Unlock()
	return func(context.Context) error {
		c.mu.Lock()
		c.unlocked++
		c.mu.Unlock()
		return nil
	}, nil
}

func TestWithOwnerLock_DistributedLockerPairing(t *testing.T) {
	locker := &countingLocker{}
	o := New(nil, nil, nil, WithLocker(locker))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := o.withOwnerLock(ctx, "owner-1", func(context.Context) error { return nil })
		if err != nil {
			t.Fatalf("withOwnerLock failed: %v", err)
		}
	}

	if locker.locked != 3 || locker.unlocked != 3 {
		t.Errorf("expected 3 lock/unlock pairs, got %d/%d", locker.locked, locker.unlocked)
	}
}
