package corsso

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holsatia/corsso/authorize"
	"github.com/holsatia/corsso/internal"
	"github.com/holsatia/corsso/roles"
	"github.com/holsatia/corsso/session"
)

func TestResolveRenewsAndRotatesSecret(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")

	first, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "")
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if first.User.ID != "user-1" || first.Actor.ID != "user-1" {
		t.Errorf("resolved wrong identity: user=%q actor=%q", first.User.ID, first.Actor.ID)
	}
	if first.SessionSecret == login.SessionSecret {
		t.Error("resolve must rotate the secret")
	}
	if first.Impersonating() {
		t.Error("plain resolve should not impersonate")
	}

	// The renewed secret works; the consumed one does not.
	second, err := engine.Resolve(context.Background(), login.SessionID, first.SessionSecret, "")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if second.SessionSecret == first.SessionSecret {
		t.Error("every resolve must mint a fresh secret")
	}
	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("replayed secret: error = %v, want ErrNotLoggedIn", err)
	}
}

func TestResolveMissingCredentials(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	cases := []struct{ id, secret string }{
		{"", ""},
		{"", "some-secret"},
		{"not-a-valid-session-id", "some-secret"},
	}
	for _, tc := range cases {
		if _, err := engine.Resolve(context.Background(), tc.id, tc.secret, ""); !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("Resolve(%q, %q): error = %v, want ErrNotLoggedIn", tc.id, tc.secret, err)
		}
	}
}

func TestResolveUnknownSession(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	sessionID, err := internal.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Resolve(context.Background(), sessionID, "some-secret", ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", err)
	}
}

func TestResolveExpiredSessionIsDeleted(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	sessionID, err := internal.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	secret, err := internal.NewSessionSecret()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	record := &session.Session{
		ID:         sessionID,
		UserID:     "user-1",
		SecretHash: internal.HashSecret(secret),
		CreatedAt:  now.Add(-2 * time.Hour).Unix(),
		ExpiresAt:  now.Add(-time.Hour).Unix(),
	}
	if err := engine.sessions.Save(context.Background(), record, 24*time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := engine.Resolve(context.Background(), sessionID, secret, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("error = %v, want ErrNotLoggedIn", err)
	}

	// The attempt removes the expired record; even the right secret is
	// now an unknown session.
	stored, err := engine.sessions.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored != nil {
		t.Error("expired session should be deleted by the failed attempt")
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot[MetricSessionExpired] != 1 {
		t.Errorf("session expired counter = %d, want 1", snapshot[MetricSessionExpired])
	}
}

func TestResolveVanishedUserDropsSession(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")

	if err := directory.DeleteUser(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("error = %v, want ErrNotLoggedIn", err)
	}
	stored, err := engine.sessions.Get(context.Background(), login.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored != nil {
		t.Error("session of a vanished user should be deleted")
	}
}

func TestResolveAdminImpersonation(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "admin-1", "admin@corps.example", "correct horse battery staple",
		func(u *UserRecord) { u.Admin = true })
	seedUser(t, engine, directory, "user-2", "fux@corps.example", "another fine password",
		func(u *UserRecord) { u.Status = roles.StatusF })
	if err := directory.Assign(context.Background(), "user-2", roles.CommissionFM); err != nil {
		t.Fatal(err)
	}

	login := mustLogin(t, engine, "admin@corps.example", "correct horse battery staple")
	resolved, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "user-2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !resolved.Impersonating() {
		t.Fatal("admin act-as should impersonate")
	}
	if resolved.User.ID != "admin-1" {
		t.Errorf("session owner = %q, want admin-1", resolved.User.ID)
	}
	if resolved.Actor.ID != "user-2" {
		t.Errorf("actor = %q, want user-2", resolved.Actor.ID)
	}
	if len(resolved.Commissions) != 1 || resolved.Commissions[0] != roles.CommissionFM {
		t.Errorf("commissions = %v, want the target's [FM]", resolved.Commissions)
	}

	subject := resolved.Subject()
	if subject.Admin {
		t.Error("impersonated subject must not inherit the admin flag")
	}
	if subject.Status != roles.StatusF {
		t.Errorf("subject status = %s, want F", subject.Status)
	}
}

func TestResolveNonAdminActAsIsSilentlyIgnored(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	seedUser(t, engine, directory, "user-2", "fux@corps.example", "another fine password")

	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")
	resolved, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "user-2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Impersonating() {
		t.Error("non-admin act-as must fall back to the caller's own identity")
	}
	if resolved.Actor.ID != "user-1" {
		t.Errorf("actor = %q, want user-1", resolved.Actor.ID)
	}
}

func TestResolveAdminActAsUnknownTarget(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "admin-1", "admin@corps.example", "correct horse battery staple",
		func(u *UserRecord) { u.Admin = true })

	login := mustLogin(t, engine, "admin@corps.example", "correct horse battery staple")
	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "no-such-user"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestResolveFailedActAsLeavesSessionUsable(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "admin-1", "admin@corps.example", "correct horse battery staple",
		func(u *UserRecord) { u.Admin = true })
	login := mustLogin(t, engine, "admin@corps.example", "correct horse battery staple")

	// The failed attempt must not rotate the secret: the client's only
	// credential pair has to keep working.
	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "no-such-user"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}

	resolved, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "")
	if err != nil {
		t.Fatalf("session should survive a failed act-as attempt: %v", err)
	}
	if resolved.User.ID != "admin-1" || resolved.Impersonating() {
		t.Errorf("resolved wrong identity: %+v", resolved)
	}
}

func TestAuthorize(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")
	resolved, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := engine.Authorize(resolved, authorize.MinCircle(roles.CircleInner)); err != nil {
		t.Errorf("CB should pass the INNER requirement: %v", err)
	}

	err = engine.Authorize(resolved, authorize.Group(roles.GroupAHV))
	var denied *NotAuthorizedError
	if !errors.As(err, &denied) {
		t.Fatalf("error = %v, want NotAuthorizedError", err)
	}
	if denied.Requirement != "AHV" {
		t.Errorf("requirement name = %q, want AHV", denied.Requirement)
	}
	if !errors.Is(err, ErrNotAuthorized) {
		t.Error("NotAuthorizedError should unwrap to ErrNotAuthorized")
	}
}

func TestLogout(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")

	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("error = %v, want ErrNotLoggedIn", err)
	}

	// Logging out twice is fine.
	if err := engine.Logout(context.Background(), login.SessionID); err != nil {
		t.Errorf("repeat Logout failed: %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	seedUser(t, engine, directory, "user-2", "fux@corps.example", "another fine password")

	first := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")
	second := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")
	other := mustLogin(t, engine, "fux@corps.example", "another fine password")

	dropped, err := engine.LogoutAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}

	for _, login := range []*LoginResult{first, second} {
		if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, ""); !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("session %s should be gone", login.SessionID)
		}
	}
	if _, err := engine.Resolve(context.Background(), other.SessionID, other.SessionSecret, ""); err != nil {
		t.Errorf("other user's session must survive: %v", err)
	}
}
