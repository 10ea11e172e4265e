package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// ActivityRepository persists the append-only case activity trail.
type ActivityRepository interface {
	Record(ctx context.Context, event domain.ActivityEvent) error
	// ListByCase returns the most recent events for a case, newest first.
	ListByCase(ctx context.Context, caseID int64, limit int) ([]domain.ActivityEvent, error)
}

// ActivityPublisher hands an event off for asynchronous recording. Publishing
// never blocks the caller on storage and never fails the originating request.
type ActivityPublisher interface {
	Publish(event domain.ActivityEvent)
}

// IdempotencyStore remembers which case a client-supplied Idempotency-Key
// produced, scoped per user.
//
// Reserve claims a free key for the caller. When the key is already held it
// reports reserved=false together with the recorded case id, which is 0
// while the holder's create is still in flight. The holder finishes with
// Complete on success or Release on failure.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID int64, key string) (caseID int64, reserved bool, err error)
	Complete(ctx context.Context, userID int64, key string, caseID int64) error
	Release(ctx context.Context, userID int64, key string) error
}
