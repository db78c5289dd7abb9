// Package ledger owns the per-(user, service) usage counters. It is the one
// mutable shared resource with real contention in the system, so every
// implementation must make the check-then-increment on a single counter
// linearizable with respect to concurrent increments and resets.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrLimitReached is returned by Increment when the counter already sits at
// or above the supplied limit. The counter is left untouched in that case.
var ErrLimitReached = errors.New("call limit reached")

// Key identifies one usage counter.
type Key struct {
	UserID    uuid.UUID
	ServiceID uuid.UUID
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.UserID, k.ServiceID)
}

// Store is the usage ledger.
//
// Increment applies the admit-or-reject decision for one access:
// a missing counter is created with calls_made = 1 (first access is always
// admitted — a fresh counter cannot have exceeded any limit); an existing
// counter below limit is incremented; an existing counter at or above limit
// returns ErrLimitReached with no mutation. The whole read-modify-write is
// atomic per counter. The returned value is calls_made after the increment.
//
// ResetUser zeroes every counter owned by one user; ResetAll zeroes every
// counter in the system and reports how many were nonzero. Each individual
// counter reset is atomic relative to concurrent Increments: whichever
// operation wins the per-counter exclusion second determines the final value.
type Store interface {
	Increment(ctx context.Context, key Key, limit int) (int, error)
	ResetUser(ctx context.Context, userID uuid.UUID) error
	ResetAll(ctx context.Context) (int, error)
	CountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}
