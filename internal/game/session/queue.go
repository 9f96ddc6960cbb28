package session

import "sync"

// Queue is the process-wide FIFO of sessions waiting for an opponent.
// All methods are safe for concurrent use.
//
// Invariant: a session appears at most once; insertion order is arrival
// order. Because pairing is immediate the queue holds at most a transient
// surplus of one entry.
type Queue struct {
	mu      sync.Mutex
	waiting []*Session
}

// NewQueue creates an empty matchmaking queue.
func NewQueue() *Queue {
	return &Queue{}
}

// PairOrWait either pairs the caller with the earliest waiter or enqueues it.
//
// The empty-check and pop happen under one lock acquisition so two
// concurrent calls can never dequeue the same head. If the queue is empty,
// s is appended and marked Queued and nil is returned; otherwise the head
// is removed and returned, and the caller completes the pairing outside
// the lock.
//
// Precondition: s must be Idle and not already in the queue (the protocol
// dispatcher gates PLAY on this).
func (q *Queue) PairOrWait(s *Session) *Session {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) == 0 {
		q.waiting = append(q.waiting, s)
		s.markQueued()
		return nil
	}

	head := q.waiting[0]
	q.waiting = q.waiting[1:]
	return head
}

// Remove takes a session out of the queue, reporting whether it was present.
// Used when a queued client disconnects; a session already popped by a
// concurrent pairing is simply not found.
func (q *Queue) Remove(s *Session) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, w := range q.waiting {
		if w == s {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of waiting sessions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
