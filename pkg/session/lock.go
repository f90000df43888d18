package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// ownerLocks serializes processing per owner key. It uses reference counting
// to garbage collect unused locks; cross-owner operations never contend.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*lockEntry)}
}

// acquire gets or creates a lock entry and increments its reference count.
func (l *ownerLocks) acquire(ownerKey string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[ownerKey]
	if !exists {
		entry = &lockEntry{}
		l.locks[ownerKey] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (l *ownerLocks) release(ownerKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[ownerKey]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, ownerKey)
	}
}

// withOwnerLock executes fn while holding the local lock for the owner, plus
// the distributed lock when one is configured.
func (o *Orchestrator) withOwnerLock(ctx context.Context, ownerKey string, fn func(context.Context) error) error {
	entry := o.locks.acquire(ownerKey)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		o.locks.release(ownerKey)
	}()

	if o.locker != nil {
		unlock, err := o.locker.Lock(ctx, ownerKey, o.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				o.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"owner_key", ownerKey,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// defaultLockTTL bounds distributed lock hold time; a processing step is
// expected to be fast and non-blocking.
const defaultLockTTL = 30 * time.Second
