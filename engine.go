package corsso

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/holsatia/corsso/authorize"
	"github.com/holsatia/corsso/internal"
	"github.com/holsatia/corsso/internal/metrics"
	"github.com/holsatia/corsso/password"
	"github.com/holsatia/corsso/session"
	"github.com/holsatia/corsso/token"
)

// Engine orchestrates authentication, session lifecycle, and the
// privileged account operations of the SSO. Construct it through
// [Builder.Build]; it is immutable and safe for concurrent use
// afterwards.
type Engine struct {
	config    Config
	directory Directory
	hasher    *password.Hasher
	sessions  *session.Store
	resets    *resetStore
	tokens    *token.Manager
	metrics   *metrics.Metrics
}

func (e *Engine) metricInc(id metrics.ID) {
	// metrics is a no-op on nil receivers.
	e.metrics.Inc(id)
}

// Resolve validates the presented session credentials and returns the
// renewed session with its user. Every successful call slides the expiry
// to now + validity and rotates the secret; the caller must re-issue
// [Resolved.SessionSecret] to the client. Missing, unknown, expired, or
// mismatched credentials fail with [ErrNotLoggedIn]; expired sessions
// are deleted as part of the failed attempt.
//
// The rotation is committed only after every directory lookup has
// succeeded: a failed request leaves the session renewable with the
// secret the client already holds.
//
// actAs names a user to act as and is honored only when the session
// owner is an admin. For non-admins it is silently ignored and the
// caller's own identity is used; this asymmetry is deliberate, so that
// probing the parameter reveals nothing.
func (e *Engine) Resolve(ctx context.Context, sessionID, clearSecret, actAs string) (*Resolved, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" || clearSecret == "" || !internal.ValidSessionID(sessionID) {
		return nil, ErrNotLoggedIn
	}

	now := time.Now()
	record, err := e.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrCorruptRecord) {
		e.metricInc(metrics.SessionRejected)
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		e.metricInc(metrics.SessionRejected)
		return nil, ErrNotLoggedIn
	}
	if record.Expired(now) {
		if _, err := e.sessions.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		e.metricInc(metrics.SessionExpired)
		return nil, ErrNotLoggedIn
	}

	providedHash := internal.HashSecret(clearSecret)
	if subtle.ConstantTimeCompare(providedHash[:], record.SecretHash[:]) != 1 {
		e.metricInc(metrics.SessionRejected)
		return nil, ErrNotLoggedIn
	}

	user, err := e.directory.UserByID(ctx, record.UserID)
	if errors.Is(err, ErrUserNotFound) {
		// The account vanished underneath its session.
		if _, err := e.sessions.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	actor := user
	if actAs != "" && actAs != user.ID && user.Admin {
		actor, err = e.directory.UserByID(ctx, actAs)
		if err != nil {
			return nil, err
		}
	}

	commissions, err := e.directory.CommissionsFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	nextSecret, err := internal.NewSessionSecret()
	if err != nil {
		return nil, err
	}

	// Commit. The script re-checks expiry and the secret hash, so losing
	// a race against a concurrent rotation or logout just fails closed.
	validity := e.config.Session.Validity
	_, status, err := e.sessions.Renew(
		ctx,
		sessionID,
		providedHash,
		internal.HashSecret(nextSecret),
		validity,
		now,
	)
	if err != nil && !errors.Is(err, session.ErrCorruptRecord) {
		return nil, err
	}
	switch status {
	case session.RenewOK:
		// fall through below
	case session.RenewExpired:
		e.metricInc(metrics.SessionExpired)
		return nil, ErrNotLoggedIn
	default:
		e.metricInc(metrics.SessionRejected)
		return nil, ErrNotLoggedIn
	}

	e.metricInc(metrics.SessionRenewed)
	return &Resolved{
		SessionID:     sessionID,
		SessionSecret: nextSecret,
		ExpiresAt:     now.Add(validity),
		User:          user,
		UserFlags:     user.Flags(e.config.Auth.MaxFailedLogins),
		Actor:         actor,
		Commissions:   commissions,
	}, nil
}

// Authorize checks the acting identity against the requirement. Admins
// bypass every requirement. Denial returns a [NotAuthorizedError]
// carrying the requirement's display name.
func (e *Engine) Authorize(resolved *Resolved, requirement authorize.Requirement) error {
	if authorize.Authorize(resolved.Subject(), requirement) {
		return nil
	}
	e.metricInc(metrics.AuthorizationDenied)
	return &NotAuthorizedError{Requirement: requirement.Name()}
}

// Logout terminates the given session only. Terminating an already-gone
// session is not an error.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if _, err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.metricInc(metrics.Logout)
	return nil
}

// LogoutAll terminates every session of the user ("log out everywhere")
// and returns how many were dropped.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	dropped, err := e.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	e.metricInc(metrics.LogoutAll)
	return dropped, nil
}

// IssueIdentityToken signs an identity assertion for the acting identity
// of the resolved session, for consumption by downstream relying
// parties. Requires token issuance to be enabled in the configuration.
func (e *Engine) IssueIdentityToken(resolved *Resolved) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.tokens == nil {
		return "", ErrTokenIssuanceDisabled
	}

	commissions := make([]string, len(resolved.Commissions))
	for i, commission := range resolved.Commissions {
		commissions[i] = commission.Abbreviation()
	}

	name := resolved.Actor.FirstName
	if resolved.Actor.LastName != "" {
		if name != "" {
			name += " "
		}
		name += resolved.Actor.LastName
	}

	return e.tokens.Issue(resolved.Actor.ID, resolved.SessionID, token.IdentityClaims{
		Email:       resolved.Actor.Email,
		Name:        name,
		Status:      resolved.Actor.Status.Abbreviation(),
		Commissions: commissions,
		Admin:       resolved.Actor.Admin,
	})
}
