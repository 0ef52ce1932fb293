package corsso

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn is returned when session credentials are missing,
	// unknown, expired, or fail verification.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrNotAuthenticated is the base error for resolved but disabled
	// accounts; the concrete error is a [NotAuthenticatedError].
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotAuthorized is the base error for denied requirements; the
	// concrete error is a [NotAuthorizedError].
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidCredentials is returned on login when the email is
	// unknown or the password does not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPassword is returned when a self-service destructive
	// action requires the current password and it does not verify.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUserNotFound is returned when a directory lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrResetPending is returned when a password reset is requested
	// while an unexpired token already exists for the user.
	ErrResetPending = errors.New("password reset already pending")
	// ErrResetInvalid is returned when a reset token is unknown,
	// expired, or already consumed.
	ErrResetInvalid = errors.New("password reset token invalid")
	// ErrTokenIssuanceDisabled is returned by IssueIdentityToken when no
	// token manager is configured.
	ErrTokenIssuanceDisabled = errors.New("identity token issuance disabled")
	// ErrEngineNotReady is returned when an Engine method is called on
	// an engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// AccountFlags describes why an account counts as disabled. All three
// flags false means the account is enabled.
type AccountFlags struct {
	Verified             bool
	Locked               bool
	FailedLoginsExceeded bool
}

// Disabled reports whether the account may authenticate.
func (f AccountFlags) Disabled() bool {
	return !f.Verified || f.Locked || f.FailedLoginsExceeded
}

// NotAuthenticatedError reports a resolved user whose account is
// disabled. The flags let clients distinguish unverified, locked, and
// counter-disabled accounts.
type NotAuthenticatedError struct {
	Flags AccountFlags
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf(
		"not authenticated: verified=%t locked=%t failed_logins_exceeded=%t",
		e.Flags.Verified, e.Flags.Locked, e.Flags.FailedLoginsExceeded,
	)
}

func (e *NotAuthenticatedError) Unwrap() error {
	return ErrNotAuthenticated
}

// NotAuthorizedError reports a denied requirement. Requirement is the
// requirement's display name, e.g. "INNER & AHV" or "Admin".
type NotAuthorizedError struct {
	Requirement string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized: %s", e.Requirement)
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}
