package portal

import (
	"sync"
	"testing"
	"time"
)

func TestLockAllCollapsesDuplicateKeys(t *testing.T) {
	pl := newPropertyLocks()

	done := make(chan struct{})
	go func() {
		unlock := pl.LockAll([]string{"same-id", "same-id", "other-id"})
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("LockAll with a duplicated key never returned")
	}

	// The keys must be fully released afterwards.
	unlock := pl.LockAll([]string{"same-id", "other-id"})
	unlock()
}

func TestLockAllSerializesOverlappingBatches(t *testing.T) {
	pl := newPropertyLocks()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	batches := [][]string{
		{"a", "b", "c"},
		{"c", "b"},
		{"b", "a"},
	}
	for _, keys := range batches {
		wg.Add(1)
		go func(keys []string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				unlock := pl.LockAll(keys)
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				unlock()
			}
		}(keys)
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("overlapping batches ran concurrently, max active %d", maxActive)
	}
}

func TestLockAllCleansUpEntries(t *testing.T) {
	pl := newPropertyLocks()

	unlock := pl.LockAll([]string{"x", "y"})
	unlock()

	pl.mu.Lock()
	defer pl.mu.Unlock()
	if len(pl.locks) != 0 {
		t.Errorf("expected empty lock map after release, got %d entries", len(pl.locks))
	}
}
