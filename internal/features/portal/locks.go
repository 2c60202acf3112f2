package portal

import (
	"slices"
	"sort"
	"sync"
)

// propertyLocks serializes submissions per property so an ADD and a REMOVE
// for the same listing cannot interleave and leave a stale ref id behind.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[string]*propLock
}

type propLock struct {
	mu   sync.Mutex
	refs int
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{
		locks: make(map[string]*propLock),
	}
}

// LockAll acquires the locks for every key in sorted order, which rules out
// deadlock between overlapping batches. Duplicate keys are collapsed; taking
// the same mutex twice would block forever. The returned func releases them.
func (pl *propertyLocks) LockAll(keys []string) func() {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	sorted = slices.Compact(sorted)

	acquired := make([]*propLock, 0, len(sorted))
	for _, key := range sorted {
		pl.mu.Lock()
		l, ok := pl.locks[key]
		if !ok {
			l = &propLock{}
			pl.locks[key] = l
		}
		l.refs++
		pl.mu.Unlock()

		l.mu.Lock()
		acquired = append(acquired, l)
	}

	sortedCopy := sorted
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()

			pl.mu.Lock()
			l := acquired[i]
			l.refs--
			if l.refs == 0 {
				delete(pl.locks, sortedCopy[i])
			}
			pl.mu.Unlock()
		}
	}
}
