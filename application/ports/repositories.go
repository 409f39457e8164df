package ports

import (
	"context"
	"errors"
	"time"

	"hr-backend/domain/core/entities"
)

// Repository errors, possibly wrapped.
var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict means a new record collided with an existing one.
	ErrConflict = errors.New("entity already exists")

	// ErrUnavailable means the store is throttling or unreachable and the
	// request may succeed later.
	ErrUnavailable = errors.New("store unavailable")
)

// Repository is the authoritative store for one entity kind.
type Repository[T entities.Entity] interface {
	// Load returns the record with id or ErrNotFound.
	Load(ctx context.Context, id int64) (T, error)

	// LoadAll returns every record ordered by id.
	LoadAll(ctx context.Context) ([]T, error)

	// Save creates or replaces the record. A zero id is replaced by a newly
	// allocated one before the write. Replacing a record that no longer
	// exists returns ErrNotFound.
	Save(ctx context.Context, entity T) error

	// Delete removes the record or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// ClaimResult is the outcome of IdempotencyStore.Claim.
type ClaimResult int

const (
	// ClaimAcquired: the caller holds a pending lease and should run the
	// side effect, then Complete or Release the key.
	ClaimAcquired ClaimResult = iota
	// ClaimInProgress: another attempt holds an unexpired lease.
	ClaimInProgress
	// ClaimDone: the side effect already ran.
	ClaimDone
)

// ErrClaimInProgress is returned by handlers that find a live lease held by
// another attempt; the message should be retried later.
var ErrClaimInProgress = errors.New("side effect in progress")

// IdempotencyStore remembers which side effects already ran. A key moves
// from pending to done only through Complete, so an attempt that crashes
// while holding a lease leaves the key claimable once the lease expires.
type IdempotencyStore interface {
	// Claim takes a pending lease on key. A pending key whose lease expired
	// can be claimed again.
	Claim(ctx context.Context, key string, lease time.Duration) (ClaimResult, error)

	// Complete marks key done and keeps it for retention.
	Complete(ctx context.Context, key string, retention time.Duration) error

	// Release drops a pending lease so a redelivery can claim it at once.
	// Done keys are left untouched.
	Release(ctx context.Context, key string) error
}
