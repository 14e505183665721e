package services

import "sync"

// EventLocks serializes the capacity-sensitive mutations of a single event.
// The accept path's read-count/compare/increment/status-recompute sequence
// must run as one atomic unit per event; invitations for different events
// never contend. Locks are created lazily and never removed: the event id
// space is small and bounded by the events table.
type EventLocks struct {
	mu sync.Map // eventID -> *sync.Mutex
}

// NewEventLocks returns an empty lock keyring.
func NewEventLocks() *EventLocks {
	return &EventLocks{}
}

// Lock acquires the mutex for the event and returns the unlock function.
func (l *EventLocks) Lock(eventID string) func() {
	v, _ := l.mu.LoadOrStore(eventID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
