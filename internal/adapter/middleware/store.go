package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Accepts UUIDs, ULIDs and similar opaque client tokens.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,128}$`)

// replay is what the store keeps per idempotency key.
type replay struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
}

// replayStore keeps request outcomes in Redis under "idemp:<method>:<route>:<key>".
type replayStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func newReplayStore(rdb *redis.Client, ttl time.Duration) *replayStore {
	return &replayStore{rdb: rdb, ttl: ttl, lockTTL: pendingTTL}
}

func storeKey(method, route, clientKey string) string {
	return "idemp:" + strings.ToLower(method) + ":" + route + ":" + clientKey
}

// fingerprint binds a key to the concrete path as well as the body, so the
// same key and body sent to /api/loans/2 does not replay /api/loans/1.
func fingerprint(path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// reserve claims the key for an in-flight request. False means someone
// already holds it.
func (s *replayStore) reserve(ctx context.Context, key, sum string) (bool, error) {
	raw, err := json.Marshal(replay{Pending: true, Fingerprint: sum, StoredAt: time.Now().UTC()})
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, raw, s.lockTTL).Result()
}

func (s *replayStore) get(ctx context.Context, key string) (replay, error) {
	var r replay
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(raw, &r)
	return r, err
}

// complete replaces the reservation with the final response for the full TTL.
func (s *replayStore) complete(ctx context.Context, key string, r replay) error {
	r.Pending = false
	r.StoredAt = time.Now().UTC()
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

func (s *replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
