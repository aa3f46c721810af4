package memory

import (
	"context"
	"sync"
)

// lockTable hands out named exclusive locks whose waits honour context
// cancellation. Entries are dropped once nobody holds or waits on them.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

func (t *lockTable) acquire(ctx context.Context, name string) error {
	t.mu.Lock()
	e, ok := t.entries[name]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		t.entries[name] = e
	}
	e.refs++
	t.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.unref(name, e)
		return ctx.Err()
	}
}

func (t *lockTable) release(name string) {
	t.mu.Lock()
	e := t.entries[name]
	t.mu.Unlock()

	<-e.sem
	t.unref(name, e)
}

func (t *lockTable) unref(name string, e *lockEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(t.entries, name)
	}
}

// size reports how many names are currently tracked.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
