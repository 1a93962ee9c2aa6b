package credit

import (
	"sync"

	"github.com/google/uuid"
)

// customerLocks serializes intake per customer inside one process.
// Entries are reference counted and dropped once the last holder unlocks,
// so the map only holds customers with work in flight.
type customerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[uuid.UUID]*customerLock)}
}

// Lock blocks until the caller owns customerID and returns the unlock func
func (l *customerLocks) Lock(customerID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[customerID]
	if !ok {
		lock = &customerLock{}
		l.locks[customerID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, customerID)
		}
		l.mu.Unlock()
	}
}

// size returns the number of customers currently locked or waited on
func (l *customerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
