package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore provides in-process shared counters for single-instance
// deployments. Each window key is owned by exactly one goroutine (its
// "counter actor") that processes increment requests from a channel, so every
// counter mutation and every expiry decision for a key is serialized by
// construction. There is no lock shared with a detached expiry timer.
type MemoryStore struct {
	mu     sync.Mutex
	actors map[string]*counterActor
	done   chan struct{}
	closed bool
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// retireRetry is how long an actor waits before re-checking whether it can
// retire after finding itself busy or not yet expired.
const retireRetry = 50 * time.Millisecond

type incrementRequest struct {
	ttl   time.Duration
	reply chan int64 // buffered, the actor never blocks on it
}

// counterActor owns one window key's count and expiry.
// pending is the number of callers currently holding a reference to the
// actor; it is guarded by MemoryStore.mu and keeps the actor from retiring
// underneath a caller that is about to send.
type counterActor struct {
	requests chan incrementRequest
	pending  int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actors: make(map[string]*counterActor),
		done:   make(chan struct{}),
	}
}

// Increment delivers an increment request to the key's counter actor and
// waits for the post-increment value. If the caller gives up before the
// round-trip completes, the increment may or may not have taken effect; no
// compensating decrement is attempted.
func (s *MemoryStore) Increment(ctx context.Context, windowKey string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: store closed", ErrUnavailable)
	}
	a, ok := s.actors[windowKey]
	if !ok {
		a = &counterActor{requests: make(chan incrementRequest, 16)}
		s.actors[windowKey] = a
		go a.run(s, windowKey)
	}
	a.pending++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		a.pending--
		s.mu.Unlock()
	}()

	req := incrementRequest{ttl: ttl, reply: make(chan int64, 1)}

	select {
	case a.requests <- req:
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case <-s.done:
		return 0, fmt.Errorf("%w: store closed", ErrUnavailable)
	}

	select {
	case count := <-req.reply:
		return count, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case <-s.done:
		return 0, fmt.Errorf("%w: store closed", ErrUnavailable)
	}
}

// Len returns the number of live counter actors. Intended for tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// Close stops all counter actors and rejects further increments.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.actors = make(map[string]*counterActor)
	return nil
}

// run is the actor loop. The count and its expiry live exclusively here: an
// entry whose expiry has passed is reset before the next increment applies,
// and the first increment of a fresh entry arms the expiry.
func (a *counterActor) run(s *MemoryStore, key string) {
	var (
		count     int64
		expiresAt time.Time
	)

	idle := time.NewTimer(retireRetry)
	defer idle.Stop()

	for {
		select {
		case req := <-a.requests:
			now := time.Now()
			if count > 0 && now.After(expiresAt) {
				count = 0
			}
			if count == 0 {
				expiresAt = now.Add(req.ttl)
				if !idle.Stop() {
					select {
					case <-idle.C:
					default:
					}
				}
				idle.Reset(req.ttl + retireRetry)
			}
			count++
			req.reply <- count

		case <-idle.C:
			// Retirement must hold the store mutex: pending == 0 there means
			// no caller can be about to send to this actor.
			s.mu.Lock()
			if a.pending == 0 && time.Now().After(expiresAt) {
				delete(s.actors, key)
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			idle.Reset(retireRetry)

		case <-s.done:
			return
		}
	}
}
