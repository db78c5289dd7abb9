package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	keyedsync "subgate/pkg/sync"
)

// InMemoryStore keeps usage counters in process memory for tests and
// database-less dev mode.
//
// Locking discipline: each counter's read-modify-write runs under its key's
// shard lock, so two increments of the same counter can never read the same
// pre-increment value. Sweeps take every shard, excluding all in-flight
// increments for the duration of the sweep. The map itself has a separate
// mutex so counters on different shards can be touched concurrently.
type InMemoryStore struct {
	locks *keyedsync.ShardedMutex

	mu       sync.RWMutex
	counters map[Key]int
}

// NewInMemory constructs an empty in-memory ledger.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		locks:    keyedsync.NewShardedMutex(),
		counters: make(map[Key]int),
	}
}

func (s *InMemoryStore) Increment(_ context.Context, key Key, limit int) (int, error) {
	lockKey := key.String()
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.counters[key]
	if !ok {
		s.counters[key] = 1
		return 1, nil
	}
	if current >= limit {
		return current, ErrLimitReached
	}
	s.counters[key] = current + 1
	return current + 1, nil
}

func (s *InMemoryStore) ResetUser(_ context.Context, userID uuid.UUID) error {
	s.locks.LockAll()
	defer s.locks.UnlockAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.counters {
		if key.UserID == userID {
			s.counters[key] = 0
		}
	}
	return nil
}

func (s *InMemoryStore) ResetAll(_ context.Context) (int, error) {
	s.locks.LockAll()
	defer s.locks.UnlockAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	reset := 0
	for key, calls := range s.counters {
		if calls != 0 {
			s.counters[key] = 0
			reset++
		}
	}
	return reset, nil
}

func (s *InMemoryStore) CountsForUser(_ context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for key, calls := range s.counters {
		if key.UserID == userID {
			counts[key.ServiceID] = calls
		}
	}
	return counts, nil
}
