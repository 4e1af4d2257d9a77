// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Reset token configuration.
const (
	// ResetTokenBytes is the entropy of a reset token: 32 bytes, well past
	// the 128-bit unguessability floor.
	ResetTokenBytes = 32

	// DefaultResetTTL is how long reset tokens stay valid when the
	// configuration does not override it.
	DefaultResetTTL = 24 * time.Hour

	// DefaultMaxOutstandingResets caps the tokens a user may have live at
	// once; further issue attempts are rate-limited.
	DefaultMaxOutstandingResets = 5
)

// GenerateResetToken creates a secure random token and its hash, reading
// entropy from r (crypto/rand in production, a fixed source in tests).
// Returns (plaintext_token, sha256_hash, error). The plaintext token is
// URL-safe and goes into the reset link; only the hash touches the store.
func GenerateResetToken(r io.Reader) (token, hash string, err error) {
	if r == nil {
		r = rand.Reader
	}
	raw := make([]byte, ResetTokenBytes)
	if _, err = io.ReadFull(r, raw); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").
			With("requested_bytes", ResetTokenBytes).
			Wrap(err)
	}

	token = base64.RawURLEncoding.EncodeToString(raw)
	hash = HashResetToken(token)

	return token, hash, nil
}

// HashResetToken computes the hex SHA-256 hash of a token. Reset records are
// keyed by this hash so a leaked store dump cannot be replayed as links.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyResetToken checks if the plaintext token matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// ResetTokenStore is the TTL-capable store backing ResetService. Records
// expire at the store level; there is no sweep job. Multiple outstanding
// records per user are expected.
type ResetTokenStore interface {
	// Add records a token hash for the user with the given time-to-live.
	Add(ctx context.Context, userID ulid.ULID, tokenHash string, ttl time.Duration) error

	// Exists reports whether a non-expired record exists for the pair.
	Exists(ctx context.Context, userID ulid.ULID, tokenHash string) (bool, error)

	// Count returns the number of non-expired records for the user.
	Count(ctx context.Context, userID ulid.ULID) (int, error)

	// Clear removes every outstanding record for the user.
	Clear(ctx context.Context, userID ulid.ULID) error
}
