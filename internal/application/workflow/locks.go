package workflow

import "sync"

// keyedLocks hands out one mutex per submission id. Entries are reference
// counted and dropped once no caller holds or waits on them.
type keyedLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{entries: make(map[int64]*lockEntry)}
}

// Lock blocks until the id is free and returns the matching unlock func
func (k *keyedLocks) Lock(id int64) func() {
	k.mu.Lock()
	entry, ok := k.entries[id]
	if !ok {
		entry = &lockEntry{}
		k.entries[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
