package corsso

import (
	"context"
	"time"

	"github.com/holsatia/corsso/authorize"
	"github.com/holsatia/corsso/roles"
)

// UserRecord is a user account as stored by the [Directory]. The engine
// borrows records for the duration of a single operation; the directory
// owns them.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Status       roles.Status
	Verified     bool
	Locked       bool
	Admin        bool
	FailedLogins int
	Registered   time.Time
	Acception    *time.Time
	Reception    *time.Time
}

// Flags derives the account's disabled-reason flags under the given
// failed-login threshold.
func (u UserRecord) Flags(maxFailedLogins int) AccountFlags {
	return AccountFlags{
		Verified:             u.Verified,
		Locked:               u.Locked,
		FailedLoginsExceeded: u.FailedLogins >= maxFailedLogins,
	}
}

// Directory is the caller-implemented store for user accounts and
// commission assignments. Every call is assumed atomic; lookups return
// [ErrUserNotFound] (possibly wrapped) on a miss.
//
// HolderOf returns the current occupant of a commission; the boolean is
// false when the commission is vacant. Assign must only be called for a
// vacant commission — the engine vacates the previous occupant first to
// keep the one-occupant invariant.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (UserRecord, error)
	UserByID(ctx context.Context, id string) (UserRecord, error)
	SaveUser(ctx context.Context, user UserRecord) error
	DeleteUser(ctx context.Context, id string) error

	CommissionsFor(ctx context.Context, userID string) ([]roles.Commission, error)
	HolderOf(ctx context.Context, commission roles.Commission) (string, bool, error)
	Assign(ctx context.Context, userID string, commission roles.Commission) error
	Vacate(ctx context.Context, userID string, commission roles.Commission) error
}

// LoginResult is returned by [Engine.Login]. SessionSecret is the
// one-time clear secret; it is never persisted and cannot be retrieved
// again.
type LoginResult struct {
	SessionID     string
	SessionSecret string
	ExpiresAt     time.Time
	User          UserRecord
}

// Resolved is a validated, renewed session. User owns the session;
// Actor is the identity authorization runs against — identical to User
// unless an admin is impersonating. SessionSecret is the fresh secret
// minted by the renewal and must be re-issued to the client.
type Resolved struct {
	SessionID     string
	SessionSecret string
	ExpiresAt     time.Time
	User          UserRecord
	UserFlags     AccountFlags
	Actor         UserRecord
	Commissions   []roles.Commission
}

// Impersonating reports whether the acting identity differs from the
// session owner.
func (r *Resolved) Impersonating() bool {
	return r.Actor.ID != r.User.ID
}

// Subject returns the authorization snapshot of the acting identity.
func (r *Resolved) Subject() authorize.Subject {
	return authorize.Subject{
		Status:      r.Actor.Status,
		Admin:       r.Actor.Admin,
		Commissions: r.Commissions,
	}
}
