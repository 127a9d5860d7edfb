// internal/cart/keylock.go
package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// keyLocks serializes mutations per product id.
type keyLocks struct {
	mu   sync.Mutex
	sems map[string]*keySem
}

type keySem struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{sems: make(map[string]*keySem)}
}

func (k *keyLocks) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	ks, ok := k.sems[key]
	if !ok {
		ks = &keySem{sem: semaphore.NewWeighted(1)}
		k.sems[key] = ks
	}
	ks.refs++
	k.mu.Unlock()

	if err := ks.sem.Acquire(ctx, 1); err != nil {
		k.release(key, ks)
		return nil, err
	}

	return func() {
		ks.sem.Release(1)
		k.release(key, ks)
	}, nil
}

// tryAcquire takes key only when nobody holds it.
func (k *keyLocks) tryAcquire(key string) (func(), bool) {
	k.mu.Lock()
	ks, ok := k.sems[key]
	if !ok {
		ks = &keySem{sem: semaphore.NewWeighted(1)}
		k.sems[key] = ks
	}
	ks.refs++
	k.mu.Unlock()

	if !ks.sem.TryAcquire(1) {
		k.release(key, ks)
		return nil, false
	}

	return func() {
		ks.sem.Release(1)
		k.release(key, ks)
	}, true
}

func (k *keyLocks) release(key string, ks *keySem) {
	k.mu.Lock()
	ks.refs--
	if ks.refs == 0 {
		delete(k.sems, key)
	}
	k.mu.Unlock()
}
