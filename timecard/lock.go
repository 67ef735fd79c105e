package timecard

import "sync"

type monthKey struct {
	userID uint
	month  Month
}

type monthLock struct {
	mu   sync.Mutex
	refs int
}

// monthLocks serializes lifecycle work per (user, month) inside one process.
// Entries are dropped once nobody holds or waits on them.
type monthLocks struct {
	mu    sync.Mutex
	locks map[monthKey]*monthLock
}

func (l *monthLocks) lock(userID uint, m Month) (unlock func()) {
	k := monthKey{userID: userID, month: m}

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[monthKey]*monthLock)
	}
	ml, ok := l.locks[k]
	if !ok {
		ml = &monthLock{}
		l.locks[k] = ml
	}
	ml.refs++
	l.mu.Unlock()

	ml.mu.Lock()
	return func() {
		ml.mu.Unlock()
		l.mu.Lock()
		ml.refs--
		if ml.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}
