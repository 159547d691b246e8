package gitops

import "sync"

// lockRegistry hands out one mutex per workspace. Entries are refcounted
// and dropped when the last holder or waiter leaves.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[Key]*keyLock)}
}

// lock blocks until key is free and returns the matching unlock.
func (r *lockRegistry) lock(key Key) func() {
	r.mu.Lock()
	kl, ok := r.locks[key]
	if !ok {
		kl = &keyLock{}
		r.locks[key] = kl
	}
	kl.refs++
	r.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		r.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}

func (r *lockRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
