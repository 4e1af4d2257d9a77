// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// legacySaltLen is the salt length of the pre-argon2 credential scheme:
// 8 base64 characters prepended to the trimmed password before a single
// SHA-256 pass. Old accounts must remain verifiable indefinitely.
const legacySaltLen = 8

// legacyHashLen is the length of a hex-encoded SHA-256 digest.
const legacyHashLen = 64

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("ACCOUNT_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Credential is a stored password credential. Exactly one of the two
// implementations holds for any user record: LegacyCredential (external
// salt) or ModernCredential (self-salting argon2id). The tagged variant
// makes the either/or invariant a type guarantee instead of a convention.
type Credential interface {
	// Verify checks if the password matches the credential.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// on a malformed stored value. Comparison is constant-time with
	// respect to password content in both implementations.
	Verify(password string) (bool, error)

	// NeedsUpgrade returns true if the credential should be re-hashed with
	// the modern scheme after a successful verification.
	NeedsUpgrade() bool

	// HashValue returns the stored hash string.
	HashValue() string

	// SaltValue returns the external salt, or nil for self-salting
	// credentials.
	SaltValue() *string
}

// ModernCredential is an argon2id credential in PHC string format. The salt
// and parameters are embedded in the encoded hash.
type ModernCredential struct {
	Hash string
}

// LegacyCredential is the old fixed-digest scheme:
// hex(sha256(salt + trimmedPassword)) with an 8-character base64 salt.
type LegacyCredential struct {
	Hash string
	Salt string
}

// ParseCredential reconstructs a Credential from its storage projection.
// A present, non-empty salt selects the legacy shape; an absent salt selects
// the modern shape. Anything that matches neither returns
// ErrCorruptCredential - corrupt data is never treated as a cheap mismatch.
func ParseCredential(hash string, salt *string) (Credential, error) {
	if salt != nil && *salt != "" {
		if len(*salt) != legacySaltLen || len(hash) != legacyHashLen || !isLowerHex(hash) {
			return nil, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
				With("shape", "legacy").
				Wrap(ErrCorruptCredential)
		}
		return LegacyCredential{Hash: hash, Salt: *salt}, nil
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		return nil, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("shape", "modern").
			Wrap(ErrCorruptCredential)
	}
	return ModernCredential{Hash: hash}, nil
}

// Verify delegates to the argon2id parameters embedded in the hash.
func (c ModernCredential) Verify(password string) (bool, error) {
	// Parse the PHC string: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	parts := strings.Split(c.Hash, "$")
	if len(parts) != 6 {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("reason", "invalid hash format").
			Wrap(ErrCorruptCredential)
	}

	if parts[1] != "argon2id" {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("algorithm", parts[1]).
			Wrap(ErrCorruptCredential)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").Wrap(ErrCorruptCredential)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").Wrap(ErrCorruptCredential)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").Wrap(ErrCorruptCredential)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").Wrap(ErrCorruptCredential)
	}

	// Validate threads fits in uint8 to prevent silent truncation.
	if threads > 255 {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("threads", threads).
			Wrap(ErrCorruptCredential)
	}

	// argon2.IDKey panics on t=0 or p=0, and memory drives a
	// memory*1024-byte allocation; cap it at 4 GiB.
	if time < 1 || threads < 1 || memory > 1<<22 {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("time", time).
			With("memory", memory).
			With("threads", threads).
			Wrap(ErrCorruptCredential)
	}

	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
			With("key_len", keyLen).
			Wrap(ErrCorruptCredential)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NeedsUpgrade always returns false for the modern scheme.
func (c ModernCredential) NeedsUpgrade() bool { return false }

// HashValue returns the PHC-encoded hash.
func (c ModernCredential) HashValue() string { return c.Hash }

// SaltValue returns nil; the salt lives inside the encoded hash.
func (c ModernCredential) SaltValue() *string { return nil }

// Verify recomputes the legacy digest over salt + trimmed password.
func (c LegacyCredential) Verify(password string) (bool, error) {
	computed := legacyDigest(c.Salt, password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(c.Hash)) == 1, nil
}

// NeedsUpgrade always returns true; callers that verify a legacy credential
// re-hash with the modern scheme and persist the result.
func (c LegacyCredential) NeedsUpgrade() bool { return true }

// HashValue returns the hex digest.
func (c LegacyCredential) HashValue() string { return c.Hash }

// SaltValue returns the external salt.
func (c LegacyCredential) SaltValue() *string {
	s := c.Salt
	return &s
}

// legacyDigest computes hex(sha256(salt + trimmedPassword)), the exact
// scheme old account records were created with.
func legacyDigest(salt, password string) string {
	h := sha256.Sum256([]byte(salt + strings.TrimSpace(password)))
	return hex.EncodeToString(h[:])
}

// NewLegacyCredential builds a legacy credential from a password. Only used
// by tests and data fixtures; new credentials are always modern.
func NewLegacyCredential(salt, password string) LegacyCredential {
	return LegacyCredential{Hash: legacyDigest(salt, password), Salt: salt}
}

// Hasher produces modern credentials.
type Hasher interface {
	// Hash produces a self-salting modern credential for the password.
	Hash(password string) (Credential, error)
}

// Argon2idHasher implements Hasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id credential in PHC string format.
func (h *Argon2idHasher) Hash(password string) (Credential, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, oops.Code("ACCOUNT_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return ModernCredential{Hash: encoded}, nil
}

func isLowerHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
