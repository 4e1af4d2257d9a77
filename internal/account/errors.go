// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import "errors"

// Sentinel errors for the account domain. Services wrap these with oops
// codes and context; callers branch with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registering a username that already
	// exists under case-insensitive comparison.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username and/or password")

	// ErrCorruptCredential is returned when a stored hash/salt pair matches
	// neither the legacy nor the modern format.
	ErrCorruptCredential = errors.New("corrupt stored credential")

	// ErrRateLimited is returned when a user has too many outstanding reset
	// tokens.
	ErrRateLimited = errors.New("too many outstanding reset tokens")

	// ErrTokenInvalid is returned when a reset token is expired, revoked, or
	// was never issued. The cases are indistinguishable.
	ErrTokenInvalid = errors.New("invalid or expired reset token")

	// ErrResetDisabled is returned when password resets are switched off in
	// configuration.
	ErrResetDisabled = errors.New("password resets are disabled")

	// ErrStoreUnavailable is returned when the backing store times out or is
	// unreachable. Callers may retry the whole request; this package never
	// retries internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)
