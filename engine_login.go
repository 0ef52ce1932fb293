package corsso

import (
	"context"
	"errors"
	"time"

	"github.com/holsatia/corsso/internal"
	"github.com/holsatia/corsso/internal/metrics"
	"github.com/holsatia/corsso/session"
)

// Login authenticates the user by email and password and opens a fresh
// session. The returned clear session secret is shown exactly once.
//
// A wrong password increments the durable failed-login counter; once the
// counter reaches the configured threshold the account is disabled and
// even the correct password fails with a [NotAuthenticatedError] until
// an admin unlocks it. A successful login resets the counter and
// transparently rehashes the password when the stored hash predates the
// current parameters.
func (e *Engine) Login(ctx context.Context, email, clearPassword string) (*LoginResult, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || clearPassword == "" {
		e.metricInc(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := e.directory.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		e.metricInc(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	flags := user.Flags(e.config.Auth.MaxFailedLogins)
	if flags.Disabled() {
		e.metricInc(metrics.LoginRejectedDisabled)
		return nil, &NotAuthenticatedError{Flags: flags}
	}

	match, needsRehash, err := e.hasher.Verify(user.PasswordHash, clearPassword)
	if err != nil {
		return nil, err
	}
	if !match {
		user.FailedLogins++
		if err := e.directory.SaveUser(ctx, user); err != nil {
			return nil, err
		}
		e.metricInc(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	if needsRehash || user.FailedLogins != 0 {
		if needsRehash {
			rehashed, err := e.hasher.Hash(clearPassword)
			if err != nil {
				return nil, err
			}
			user.PasswordHash = rehashed
		}
		user.FailedLogins = 0
		if err := e.directory.SaveUser(ctx, user); err != nil {
			return nil, err
		}
	}

	result, err := e.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	e.metricInc(metrics.LoginSuccess)
	return result, nil
}

func (e *Engine) openSession(ctx context.Context, user UserRecord) (*LoginResult, error) {
	sessionID, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	clearSecret, err := internal.NewSessionSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(e.config.Session.Validity)
	record := &session.Session{
		ID:         sessionID,
		UserID:     user.ID,
		SecretHash: internal.HashSecret(clearSecret),
		CreatedAt:  now.Unix(),
		ExpiresAt:  expiresAt.Unix(),
	}
	if err := e.sessions.Save(ctx, record, e.config.Session.Validity); err != nil {
		return nil, err
	}

	e.metricInc(metrics.SessionCreated)
	return &LoginResult{
		SessionID:     sessionID,
		SessionSecret: clearSecret,
		ExpiresAt:     expiresAt,
		User:          user,
	}, nil
}
