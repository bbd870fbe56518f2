package rotator

import "sync"

// nameLocks hands out one mutex per banner name. Entries are dropped once nobody holds or
// waits on them, so the map only grows with the banners in flight.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newNameLocks() *nameLocks {
	return &nameLocks{locks: make(map[string]*refLock)}
}

// lock blocks until name is free and returns the function which releases it.
func (l *nameLocks) lock(name string) func() {
	l.mu.Lock()
	lock, ok := l.locks[name]
	if !ok {
		lock = &refLock{}
		l.locks[name] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}

func (l *nameLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
