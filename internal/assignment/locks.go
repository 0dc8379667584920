package assignment

import (
	"slices"
	"sync"
)

// lockTable hands out one mutex per key. Entries are never reclaimed;
// the table is bounded by the number of pipelines and devices the
// deployment has ever seen, which is small.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	t.locks[key] = l
	return l
}

// lock acquires the mutex for one key and returns its unlock.
func (t *lockTable) lock(key string) func() {
	l := t.get(key)
	l.Lock()
	return l.Unlock
}

// lockAll acquires the mutexes for a set of keys in sorted order, so
// two callers locking overlapping sets can never deadlock. Duplicates
// are collapsed. The returned func releases in reverse order.
func (t *lockTable) lockAll(keys ...string) func() {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, key := range sorted {
		l := t.get(key)
		l.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
