package corsso

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/holsatia/corsso/internal"
)

func TestResetRequestAndConfirm(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")
	login := mustLogin(t, engine, "max@corps.example", "correct horse battery staple")

	clearToken, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if clearToken == "" {
		t.Fatal("expected a clear token")
	}

	if err := engine.ConfirmPasswordReset(context.Background(), clearToken, "brand new password"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	// The new password works, the old one does not.
	mustLogin(t, engine, "max@corps.example", "brand new password")
	if _, err := engine.Login(context.Background(), "max@corps.example", "correct horse battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password: error = %v, want ErrInvalidCredentials", err)
	}

	// Existing sessions die with the reset.
	if _, err := engine.Resolve(context.Background(), login.SessionID, login.SessionSecret, ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("pre-reset session: error = %v, want ErrNotLoggedIn", err)
	}
}

func TestResetRequestUnknownEmail(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.RequestPasswordReset(context.Background(), "nobody@corps.example"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestResetRequestWritesTokenAndMarkerTogether(t *testing.T) {
	engine, directory, mr := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	clearToken, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	// The pending marker only ever exists alongside a redeemable token.
	if !mr.Exists("cpr:p:user-1") {
		t.Error("pending marker missing")
	}
	tokenHash := internal.HashSecret(clearToken)
	if !mr.Exists("cpr:t:" + hex.EncodeToString(tokenHash[:])) {
		t.Error("token key missing")
	}
}

func TestResetSecondRequestRejectedWhilePending(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	if _, err := engine.RequestPasswordReset(context.Background(), "max@corps.example"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := engine.RequestPasswordReset(context.Background(), "max@corps.example"); !errors.Is(err, ErrResetPending) {
		t.Errorf("error = %v, want ErrResetPending", err)
	}
}

func TestResetNewRequestAllowedAfterWindow(t *testing.T) {
	engine, directory, mr := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	stale, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// Let the validity window pass; expiry prunes the pending marker.
	mr.FastForward(2 * time.Hour)

	fresh, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatalf("request after expiry failed: %v", err)
	}
	if fresh == stale {
		t.Error("expected a new token after the window")
	}

	// The stale token is dead.
	if err := engine.ConfirmPasswordReset(context.Background(), stale, "brand new password"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("stale token: error = %v, want ErrResetInvalid", err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), fresh, "brand new password"); err != nil {
		t.Errorf("fresh token failed: %v", err)
	}
}

func TestResetConfirmRejectsUnknownToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if err := engine.ConfirmPasswordReset(context.Background(), "not-a-token", "brand new password"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("error = %v, want ErrResetInvalid", err)
	}
}

func TestResetConfirmIsSingleUse(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	clearToken, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), clearToken, "brand new password"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), clearToken, "yet another password"); !errors.Is(err, ErrResetInvalid) {
		t.Errorf("replay: error = %v, want ErrResetInvalid", err)
	}
}

func TestResetClearsLockAndCounter(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple",
		func(u *UserRecord) {
			u.Locked = true
			u.FailedLogins = 3
		})

	clearToken, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), clearToken, "brand new password"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	// A completed reset re-enables the account.
	mustLogin(t, engine, "max@corps.example", "brand new password")
}

func TestResetConfirmFreesPendingSlot(t *testing.T) {
	engine, directory, _ := newTestEngine(t)
	seedUser(t, engine, directory, "user-1", "max@corps.example", "correct horse battery staple")

	clearToken, err := engine.RequestPasswordReset(context.Background(), "max@corps.example")
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.ConfirmPasswordReset(context.Background(), clearToken, "brand new password"); err != nil {
		t.Fatal(err)
	}

	// The consumed token no longer blocks a new request.
	if _, err := engine.RequestPasswordReset(context.Background(), "max@corps.example"); err != nil {
		t.Errorf("request after confirm failed: %v", err)
	}
}
