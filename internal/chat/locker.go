package chat

import "sync"

// Locker hands out one mutex per Key. Operations on different chats never
// contend; operations on the same chat are serialized.
type Locker struct {
	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[Key]*sync.Mutex)}
}

// Lock blocks until the mutex for key is held and returns the matching unlock func.
func (l *Locker) Lock(key Key) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
