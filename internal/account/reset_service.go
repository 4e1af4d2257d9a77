// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chimehook/chimehook/internal/mailer"
	"github.com/chimehook/chimehook/internal/observability"
)

// ResetConfig carries the reset-flow settings consumed by ResetService.
type ResetConfig struct {
	// Enabled gates the whole flow; it defaults to off because delivery
	// depends on an external mail queue being configured.
	Enabled bool

	// TTL is how long issued tokens stay valid.
	TTL time.Duration

	// MaxOutstanding caps live tokens per user before Issue rate-limits.
	MaxOutstanding int

	// BaseURL is the site root used to build reset links.
	BaseURL string

	// Sender is the From identity for reset mail.
	Sender string
}

// withDefaults fills zero values with the package defaults.
func (c ResetConfig) withDefaults() ResetConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultResetTTL
	}
	if c.MaxOutstanding <= 0 {
		c.MaxOutstanding = DefaultMaxOutstandingResets
	}
	return c
}

// ResetService issues, validates, rate-limits, and revokes password-reset
// tokens. Tokens live in a TTL-capable store; the store's own expiry is the
// only cleanup mechanism. All durable state is external, so any process may
// issue and any process may validate.
type ResetService struct {
	users UserRepository
	store ResetTokenStore
	mail  mailer.Mailer
	cfg   ResetConfig

	// Injected for deterministic tests; nil means time.Now / crypto/rand.
	now     func() time.Time
	entropy io.Reader
}

// ResetOption configures a ResetService.
type ResetOption func(*ResetService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ResetOption {
	return func(s *ResetService) { s.now = now }
}

// WithEntropy overrides the random source for token generation.
func WithEntropy(r io.Reader) ResetOption {
	return func(s *ResetService) { s.entropy = r }
}

// NewResetService creates a new ResetService.
func NewResetService(users UserRepository, store ResetTokenStore, mail mailer.Mailer, cfg ResetConfig, opts ...ResetOption) *ResetService {
	s := &ResetService{
		users: users,
		store: store,
		mail:  mail,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a new reset token for the user and records it with the
// configured TTL. Fails with ErrResetDisabled when the flow is switched off
// and with ErrRateLimited when the user already has the maximum number of
// outstanding tokens. The count-then-add is read-then-write
// and may admit one extra token under extreme concurrency; that is accepted,
// the store never corrupts and never blocks.
func (s *ResetService) Issue(ctx context.Context, user *User) (string, error) {
	if !s.cfg.Enabled {
		return "", oops.Code("RESET_DISABLED").Wrap(ErrResetDisabled)
	}

	outstanding, err := s.store.Count(ctx, user.ID)
	if err != nil {
		return "", oops.Code("RESET_ISSUE_FAILED").
			With("operation", "count outstanding").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if outstanding >= s.cfg.MaxOutstanding {
		observability.RecordResetRateLimited()
		return "", oops.Code("RESET_RATE_LIMITED").
			With("outstanding", outstanding).
			With("max", s.cfg.MaxOutstanding).
			Wrap(ErrRateLimited)
	}

	token, hash, err := GenerateResetToken(s.entropy)
	if err != nil {
		return "", err
	}

	if err := s.store.Add(ctx, user.ID, hash, s.cfg.TTL); err != nil {
		return "", oops.Code("RESET_ISSUE_FAILED").
			With("operation", "record token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	observability.RecordResetIssued()
	return token, nil
}

// Validate reports whether a non-expired token exists for the user. It does
// not consume the token: the request page and the submit page both validate
// the same token within its TTL. Expired, revoked, and never-issued tokens
// are indistinguishable.
func (s *ResetService) Validate(ctx context.Context, userID ulid.ULID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.store.Exists(ctx, userID, HashResetToken(token))
	if err != nil {
		return false, oops.Code("RESET_VALIDATE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return ok, nil
}

// RevokeAll deletes every outstanding token for the user. Called
// synchronously after a successful password change so stale links cannot be
// replayed. A racing Issue may land a fresh token after the sweep; that
// token belongs to the new password and is acceptable.
func (s *ResetService) RevokeAll(ctx context.Context, userID ulid.ULID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return oops.Code("RESET_REVOKE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	observability.RecordResetRevoked()
	return nil
}

// PasswordSetter sets a user's password to a modern credential. Implemented
// by Service; consumed here so the reset-submit path can finish a reset
// without this package depending on the whole account service.
type PasswordSetter interface {
	SetPassword(ctx context.Context, userID ulid.ULID, password string) error
}

// CompleteReset is the reset-submit path: it checks the token and, when
// valid, sets the new password. Expired, revoked, and never-issued tokens all
// come back as ErrTokenInvalid; the requester learns nothing about why. The
// setter's own revocation sweep invalidates every outstanding token,
// including the one just used.
func (s *ResetService) CompleteReset(ctx context.Context, setter PasswordSetter, userID ulid.ULID, token, newPassword string) error {
	ok, err := s.Validate(ctx, userID, token)
	if err != nil {
		return err
	}
	if !ok {
		return oops.Code("RESET_TOKEN_INVALID").
			With("user_id", userID.String()).
			Wrap(ErrTokenInvalid)
	}
	return setter.SetPassword(ctx, userID, newPassword)
}

// CountOutstanding returns the number of live tokens for the user; used for
// the rate-limit check and for diagnostics.
func (s *ResetService) CountOutstanding(ctx context.Context, userID ulid.ULID) (int, error) {
	n, err := s.store.Count(ctx, userID)
	if err != nil {
		return 0, oops.Code("RESET_COUNT_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return n, nil
}

// RequestReset is the forgot-password entry point: it looks up the user,
// issues a token, builds the reset link, and hands the mail to the delivery
// collaborator. Returns ErrResetDisabled when the flow is switched off and
// ErrNotFound for unknown usernames (matching the form-level behavior of the
// reset request page). Delivery is fire-and-forget from this side.
func (s *ResetService) RequestReset(ctx context.Context, username string) error {
	if !s.cfg.Enabled {
		return oops.Code("RESET_DISABLED").Wrap(ErrResetDisabled)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_UNKNOWN_USER").Wrap(ErrNotFound)
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}

	token, err := s.Issue(ctx, user)
	if err != nil {
		return err
	}

	link := mailer.ResetLink(s.cfg.BaseURL, token, user.ID.String())
	msg := mailer.BuildResetMessage(user.Username, user.Email, link, s.cfg.Sender, s.cfg.TTL)

	if err := s.mail.Send(ctx, msg); err != nil {
		return oops.Code("RESET_MAIL_HANDOFF_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	return nil
}
