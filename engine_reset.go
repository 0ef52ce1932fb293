package corsso

import (
	"context"
	"errors"

	"github.com/holsatia/corsso/internal/metrics"
)

// RequestPasswordReset issues a reset token for the account behind the
// email and returns it in clear for out-of-band delivery. While an
// unexpired token exists for the user, further requests fail with
// [ErrResetPending]; expired tokens are pruned lazily, so a new request
// succeeds as soon as the validity window has passed.
//
// An unknown email returns [ErrUserNotFound]; whether to mask that from
// the requester is a transport decision.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil || e.resets == nil {
		return "", ErrEngineNotReady
	}

	user, err := e.directory.UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	clearToken, err := e.resets.Issue(ctx, user.ID, e.config.Reset.Validity)
	if errors.Is(err, errResetAlreadyPending) {
		e.metricInc(metrics.ResetRejectedPending)
		return "", ErrResetPending
	}
	if err != nil {
		return "", err
	}

	e.metricInc(metrics.ResetRequested)
	return clearToken, nil
}

// ConfirmPasswordReset consumes the token and sets the new password.
// The lock flag and failed-login counter are cleared, and every session
// of the user is terminated. Unknown, expired, and already-consumed
// tokens all fail with [ErrResetInvalid].
func (e *Engine) ConfirmPasswordReset(ctx context.Context, clearToken, newPassword string) error {
	if e == nil || e.resets == nil {
		return ErrEngineNotReady
	}

	userID, err := e.resets.Consume(ctx, clearToken)
	if errors.Is(err, errResetNotFound) {
		e.metricInc(metrics.ResetRejected)
		return ErrResetInvalid
	}
	if err != nil {
		return err
	}

	user, err := e.directory.UserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		e.metricInc(metrics.ResetRejected)
		return ErrResetInvalid
	}
	if err != nil {
		return err
	}

	hashed, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.Locked = false
	user.FailedLogins = 0
	if err := e.directory.SaveUser(ctx, user); err != nil {
		return err
	}

	// A reset proves control of the recovery channel, not of existing
	// sessions; drop them all.
	if _, err := e.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}

	e.metricInc(metrics.ResetConfirmed)
	return nil
}
