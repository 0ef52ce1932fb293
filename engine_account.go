package corsso

import (
	"context"
	"fmt"
	"time"

	"github.com/holsatia/corsso/internal/metrics"
	"github.com/holsatia/corsso/roles"
)

// ChangePassword replaces the user's password after verifying the
// current one. A mismatch fails with [ErrInvalidPassword] and has no
// other effect.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	user, err := e.directory.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	match, _, err := e.hasher.Verify(user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !match {
		e.metricInc(metrics.PasswordChangeRejected)
		return ErrInvalidPassword
	}

	hashed, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := e.directory.SaveUser(ctx, user); err != nil {
		return err
	}

	e.metricInc(metrics.PasswordChanged)
	return nil
}

// DeleteUser removes the target account and terminates all its
// sessions. Admin actors delete freely; a user may delete their own
// account by re-entering their password ([ErrInvalidPassword] on
// mismatch). Any other combination is denied.
func (e *Engine) DeleteUser(ctx context.Context, actor UserRecord, targetID, clearPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	if !actor.Admin {
		if actor.ID != targetID {
			return &NotAuthorizedError{Requirement: "Admin"}
		}

		target, err := e.directory.UserByID(ctx, targetID)
		if err != nil {
			return err
		}
		match, _, err := e.hasher.Verify(target.PasswordHash, clearPassword)
		if err != nil {
			return err
		}
		if !match {
			return ErrInvalidPassword
		}
	}

	if _, err := e.sessions.DeleteAllForUser(ctx, targetID); err != nil {
		return err
	}
	if err := e.directory.DeleteUser(ctx, targetID); err != nil {
		return err
	}

	e.metricInc(metrics.AccountDeleted)
	return nil
}

// SetStatus changes the user's membership status.
func (e *Engine) SetStatus(ctx context.Context, userID string, status roles.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %d", uint8(status))
	}
	return e.patchUser(ctx, userID, func(user *UserRecord) {
		user.Status = status
	})
}

// SetAcception records the user's acceptance date.
func (e *Engine) SetAcception(ctx context.Context, userID string, date time.Time) error {
	return e.patchUser(ctx, userID, func(user *UserRecord) {
		user.Acception = &date
	})
}

// SetReception records the user's reception date.
func (e *Engine) SetReception(ctx context.Context, userID string, date time.Time) error {
	return e.patchUser(ctx, userID, func(user *UserRecord) {
		user.Reception = &date
	})
}

// Unlock administratively re-enables a locked or counter-disabled
// account: the lock flag and failed-login counter are cleared.
func (e *Engine) Unlock(ctx context.Context, userID string) error {
	err := e.patchUser(ctx, userID, func(user *UserRecord) {
		user.Locked = false
		user.FailedLogins = 0
	})
	if err != nil {
		return err
	}
	e.metricInc(metrics.AccountUnlocked)
	return nil
}

func (e *Engine) patchUser(ctx context.Context, userID string, patch func(*UserRecord)) error {
	if e == nil || e.directory == nil {
		return ErrEngineNotReady
	}

	user, err := e.directory.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	patch(&user)
	return e.directory.SaveUser(ctx, user)
}
