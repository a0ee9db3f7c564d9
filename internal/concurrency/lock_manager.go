package concurrency

import (
	"slices"
	"sync"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// LockManager hands out one mutex per account id. An entry lives only while
// some caller holds or waits for it.
type LockManager struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[int64]*lockEntry)}
}

// Len reports how many ids currently have a lock entry.
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}

// LockAll locks the mutexes for every distinct id in ascending order and
// returns a function that releases them. Ordering keeps two callers locking
// the same pair from deadlocking.
func (lm *LockManager) LockAll(ids ...int64) (unlock func()) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*lockEntry, 0, len(sorted))
	for _, id := range sorted {
		e := lm.acquire(id)
		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			lm.release(sorted[i], held[i])
		}
	}
}

func (lm *LockManager) acquire(id int64) *lockEntry {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	e, ok := lm.locks[id]
	if !ok {
		e = &lockEntry{}
		lm.locks[id] = e
	}
	e.refs++
	return e
}

func (lm *LockManager) release(id int64, e *lockEntry) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(lm.locks, id)
	}
}
