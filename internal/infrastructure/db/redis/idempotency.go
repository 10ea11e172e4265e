package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultPendingTTL     = 30 * time.Second

	// pendingMarker holds a reserved key until the create that owns it
	// records the case id.
	pendingMarker = "pending"
)

// releaseScript deletes a key only while it still holds the pending marker,
// so a late Release never drops a recorded case id.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore remembers which case a client-supplied Idempotency-Key
// produced, so a retried POST /cases returns the original case.
// Key format: idem:case:<user_id>:<key>
type IdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore wraps client. Recorded keys expire after ttl, or a day
// when ttl is not positive. A reservation that is never completed expires
// after defaultPendingTTL.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, pendingTTL: defaultPendingTTL}
}

// Reserve claims key with SETNX. Exactly one of any number of racing callers
// gets reserved=true; the others see the pending marker (caseID 0) or the
// case id recorded by Complete.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID int64, key string) (int64, bool, error) {
	k := s.key(userID, key)

	// The holder may release the key between SETNX and GET; one more round
	// settles that.
	for i := 0; i < 2; i++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if val == pendingMarker {
			return 0, false, nil
		}
		caseID, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: corrupt value %q: %w", val, err)
		}
		return caseID, false, nil
	}
	return 0, false, nil
}

// Complete records caseID under key for the full ttl, replacing the pending
// marker or a stale case id.
func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key string, caseID int64) error {
	if err := s.client.Set(ctx, s.key(userID, key), caseID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a reservation whose create failed.
func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(userID, key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID int64, key string) string {
	return fmt.Sprintf("idem:case:%d:%s", userID, key)
}
