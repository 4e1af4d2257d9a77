// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package redis provides the Redis-backed reset-token store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/chimehook/chimehook/internal/account"
)

// ResetTokenStore implements account.ResetTokenStore using Redis.
//
// Layout: each token hash gets its own record key with a store-level TTL
// (SET ... EX), and a per-user SET indexes the hashes so Count and Clear can
// find them. Index members whose record has expired are pruned lazily on
// the next Count; Redis TTL is the only expiry mechanism, there is no sweep
// job.
type ResetTokenStore struct {
	client *redis.Client
	prefix string
}

// NewResetTokenStore creates a new ResetTokenStore. An empty prefix
// defaults to "reset".
func NewResetTokenStore(client *redis.Client, prefix string) *ResetTokenStore {
	if prefix == "" {
		prefix = "reset"
	}
	return &ResetTokenStore{client: client, prefix: prefix}
}

var _ account.ResetTokenStore = (*ResetTokenStore)(nil)

// tokenKey returns the record key for one token hash.
func (s *ResetTokenStore) tokenKey(userID ulid.ULID, tokenHash string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, userID.String(), tokenHash)
}

// userKey returns the key of a user's token index set.
func (s *ResetTokenStore) userKey(userID ulid.ULID) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID.String())
}

// Add records a token hash with the given TTL.
func (s *ResetTokenStore) Add(ctx context.Context, userID ulid.ULID, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.Code("RESET_STORE_INVALID_TTL").
			With("ttl", ttl.String()).
			Errorf("ttl must be positive")
	}

	issuedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.tokenKey(userID, tokenHash), issuedAt, ttl).Err(); err != nil {
		return wrapRedisErr(err, "set token record")
	}

	// The index set outlives individual records; stale members are pruned
	// on the next Count. Cap its lifetime so an abandoned user's set does
	// not linger forever.
	if err := s.client.SAdd(ctx, s.userKey(userID), tokenHash).Err(); err != nil {
		return wrapRedisErr(err, "index token")
	}
	if err := s.client.Expire(ctx, s.userKey(userID), 2*ttl).Err(); err != nil {
		return wrapRedisErr(err, "bound index ttl")
	}

	return nil
}

// Exists reports whether a non-expired record exists for the pair. Expired
// records have already been removed by Redis, so a plain EXISTS answers it.
func (s *ResetTokenStore) Exists(ctx context.Context, userID ulid.ULID, tokenHash string) (bool, error) {
	n, err := s.client.Exists(ctx, s.tokenKey(userID, tokenHash)).Result()
	if err != nil {
		return false, wrapRedisErr(err, "check token record")
	}
	return n > 0, nil
}

// Count returns the number of live records for the user, pruning index
// members whose record has expired.
func (s *ResetTokenStore) Count(ctx context.Context, userID ulid.ULID) (int, error) {
	hashes, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "list token index")
	}

	live := 0
	for _, hash := range hashes {
		n, err := s.client.Exists(ctx, s.tokenKey(userID, hash)).Result()
		if err != nil {
			return 0, wrapRedisErr(err, "check token record")
		}
		if n > 0 {
			live++
			continue
		}
		// Record expired; drop the stale index member.
		if err := s.client.SRem(ctx, s.userKey(userID), hash).Err(); err != nil {
			return 0, wrapRedisErr(err, "prune token index")
		}
	}

	return live, nil
}

// Clear removes every record and the index set for the user.
func (s *ResetTokenStore) Clear(ctx context.Context, userID ulid.ULID) error {
	hashes, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return wrapRedisErr(err, "list token index")
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, hash := range hashes {
		keys = append(keys, s.tokenKey(userID, hash))
	}
	keys = append(keys, s.userKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return wrapRedisErr(err, "delete token records")
	}
	return nil
}

// wrapRedisErr maps transport-level failures to ErrStoreUnavailable so
// callers can treat them as transient, keeping redis.Nil and friends as-is.
func wrapRedisErr(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || isNetworkErr(err) {
		return oops.Code("RESET_STORE_UNAVAILABLE").
			With("operation", operation).
			Wrap(errors.Join(account.ErrStoreUnavailable, err))
	}
	return oops.Code("RESET_STORE_FAILED").
		With("operation", operation).
		Wrap(err)
}

func isNetworkErr(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}
