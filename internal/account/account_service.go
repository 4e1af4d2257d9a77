// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chimehook/chimehook/internal/observability"
	"github.com/chimehook/chimehook/pkg/errutil"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 5

// dummyCredential is verified when a username lookup misses, so that unknown
// usernames and wrong passwords take the same time to reject.
// This is NOT a real credential - it is a fake hash that will never match.
//
//nolint:gosec // G101: intentionally fake hash for timing parity, not a credential.
var dummyCredential = ModernCredential{
	Hash: "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
}

// Service provides registration, authentication, and password management.
type Service struct {
	users  UserRepository
	tokens AuthTokenRepository
	resets ResetTokenStore
	hasher Hasher
	logger *slog.Logger
}

// NewService creates a new account Service. A nil logger uses slog.Default.
func NewService(users UserRepository, tokens AuthTokenRepository, resets ResetTokenStore, hasher Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		resets: resets,
		hasher: hasher,
		logger: logger,
	}
}

var _ PasswordSetter = (*Service)(nil)

// ValidatePassword checks a raw password against the minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("ACCOUNT_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Register creates a new user with a modern credential. Returns
// ErrUsernameTaken when the normalized username already exists; the unique
// index in the store is what decides races, not a pre-check here.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	cred, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, cred)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "create user").
			With("username", user.Username).
			Wrap(err)
	}

	return user, nil
}

// Lookup retrieves a user by username, ignoring case.
func (s *Service) Lookup(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords return the identical ErrInvalidCredentials; corrupt stored
// credentials are logged with the user ID and surfaced the same way. On
// success a legacy credential is transparently re-hashed and persisted
// before the user is returned.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, lookupErr := s.users.GetByUsername(ctx, username)

	// Pick the credential to verify against: real, or the dummy to keep
	// response time flat when the user does not exist.
	var cred Credential
	var userExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrCorruptCredential) {
			// Corrupt stored data caught at scan time: same treatment as
			// corruption caught in Verify below.
			errutil.LogError(s.logger, "credential verification failed",
				oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
					With("username", username).
					Wrap(lookupErr))
			observability.RecordAuthentication(observability.AuthFailure)
			return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		if !errors.Is(lookupErr, ErrNotFound) {
			observability.RecordAuthentication(observability.AuthError)
			return nil, oops.Code("ACCOUNT_AUTH_FAILED").
				With("operation", "get user by username").
				Wrap(lookupErr)
		}
		cred = dummyCredential
	} else {
		cred = user.Credential
		userExists = true
	}

	valid, verifyErr := cred.Verify(password)
	if verifyErr != nil {
		if userExists {
			// Corrupt stored data: diagnosable in the logs, opaque to
			// the caller.
			errutil.LogError(s.logger, "credential verification failed",
				oops.Code("ACCOUNT_CORRUPT_CREDENTIAL").
					With("user_id", user.ID.String()).
					Wrap(verifyErr))
		}
		observability.RecordAuthentication(observability.AuthFailure)
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if !userExists || !valid {
		observability.RecordAuthentication(observability.AuthFailure)
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if cred.NeedsUpgrade() {
		if upgraded, hashErr := s.hasher.Hash(password); hashErr == nil {
			if updErr := s.users.UpdateCredential(ctx, user.ID, upgraded); updErr != nil {
				errutil.LogError(s.logger, "credential upgrade not persisted",
					oops.Code("ACCOUNT_UPGRADE_FAILED").
						With("user_id", user.ID.String()).
						Wrap(updErr))
			} else {
				user.Credential = upgraded
				observability.RecordCredentialUpgrade()
			}
		}
	}

	observability.RecordAuthentication(observability.AuthSuccess)
	return user, nil
}

// SetPassword replaces a user's credential with a modern hash and
// synchronously revokes every outstanding reset token, so stale reset links
// cannot be replayed against the new password.
func (s *Service) SetPassword(ctx context.Context, userID ulid.ULID, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	cred, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("ACCOUNT_SET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdateCredential(ctx, userID, cred); err != nil {
		return oops.Code("ACCOUNT_SET_PASSWORD_FAILED").
			With("operation", "update credential").
			With("user_id", userID.String()).
			Wrap(err)
	}

	if err := s.resets.Clear(ctx, userID); err != nil {
		return oops.Code("ACCOUNT_SET_PASSWORD_FAILED").
			With("operation", "revoke reset tokens").
			With("user_id", userID.String()).
			Wrap(err)
	}
	observability.RecordResetRevoked()

	return nil
}

// ChangePassword is the direct settings-page path: the old password must
// verify before the new one is set.
func (s *Service) ChangePassword(ctx context.Context, user *User, oldPassword, newPassword string) error {
	valid, err := user.Credential.Verify(oldPassword)
	if err != nil || !valid {
		return oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}
	return s.SetPassword(ctx, user.ID, newPassword)
}

// DeleteAccount removes the user. Auth tokens cascade at the store level;
// reset tokens are cleared here since they live in a different store.
func (s *Service) DeleteAccount(ctx context.Context, userID ulid.ULID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}

	if err := s.resets.Clear(ctx, userID); err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "clear reset tokens").
			With("user_id", userID.String()).
			Wrap(err)
	}

	return nil
}

// CreateAuthToken stores a service credential for the user.
func (s *Service) CreateAuthToken(ctx context.Context, ownerID ulid.ULID, name, token string) (*AuthToken, error) {
	t, err := NewAuthToken(name, token, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, oops.Code("ACCOUNT_AUTH_TOKEN_FAILED").
			With("owner_id", ownerID.String()).
			Wrap(err)
	}
	return t, nil
}

// ListAuthTokens returns the user's service credentials, oldest first.
func (s *Service) ListAuthTokens(ctx context.Context, ownerID ulid.ULID) ([]*AuthToken, error) {
	tokens, err := s.tokens.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, oops.Code("ACCOUNT_AUTH_TOKEN_FAILED").
			With("owner_id", ownerID.String()).
			Wrap(err)
	}
	return tokens, nil
}
