package state

import (
	"context"
	"strings"
	"sync"
)

// ThreadLocker serialises work on a single thread id. Entries are reference
// counted and removed once nobody holds or waits for them.
type ThreadLocker struct {
	mu      sync.Mutex
	entries map[string]*threadLock
}

type threadLock struct {
	sem  chan struct{}
	refs int
}

func NewThreadLocker() *ThreadLocker {
	return &ThreadLocker{entries: make(map[string]*threadLock)}
}

// Lock blocks until threadID is free or ctx is done. The returned func
// releases the lock and is safe to call more than once.
func (l *ThreadLocker) Lock(ctx context.Context, threadID string) (func(), error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	l.mu.Lock()
	entry, ok := l.entries[threadID]
	if !ok {
		entry = &threadLock{sem: make(chan struct{}, 1)}
		l.entries[threadID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(threadID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(threadID, entry)
		})
	}, nil
}

func (l *ThreadLocker) release(threadID string, entry *threadLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, threadID)
	}
}

// Len reports how many thread ids currently have holders or waiters.
func (l *ThreadLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
