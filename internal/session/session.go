// Package session tracks forced logouts.  Access tokens are stateless, so
// revoking them means remembering, per user, the instant before which every
// issued token is void.  The marker lives in Redis and expires together
// with the longest-lived token it can affect.
package session

import (
    "context"
    "errors"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// Store records revocations.  A nil *redis.Client makes every method a
// no-op, which disables forced logout without breaking login.
type Store struct {
    rdb    *redis.Client
    prefix string
    ttl    time.Duration
}

// New returns a Store keeping markers for tokenTTL.
func New(rdb *redis.Client, prefix string, tokenTTL time.Duration) *Store {
    return &Store{rdb: rdb, prefix: prefix, ttl: tokenTTL}
}

func (s *Store) key(userID uint64) string {
    return s.prefix + ":revoked:" + strconv.FormatUint(userID, 10)
}

// RevokeAll voids every token of userID issued before at.
func (s *Store) RevokeAll(ctx context.Context, userID uint64, at time.Time) error {
    if s == nil || s.rdb == nil {
        return nil
    }
    return s.rdb.Set(ctx, s.key(userID), at.Unix(), s.ttl).Err()
}

// RevokedSince returns the revocation instant for userID, or the zero time
// when nothing was revoked.
func (s *Store) RevokedSince(ctx context.Context, userID uint64) (time.Time, error) {
    if s == nil || s.rdb == nil {
        return time.Time{}, nil
    }
    v, err := s.rdb.Get(ctx, s.key(userID)).Int64()
    if errors.Is(err, redis.Nil) {
        return time.Time{}, nil
    }
    if err != nil {
        return time.Time{}, err
    }
    return time.Unix(v, 0).UTC(), nil
}

// Valid reports whether a token issued at iat survives revocation.  Tokens
// carry second precision, so a token issued in the same second as the
// revocation is treated as revoked.
func Valid(iat, revokedAt time.Time) bool {
    return revokedAt.IsZero() || iat.After(revokedAt)
}
