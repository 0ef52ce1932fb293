// Package guard integrates the engine with net/http. The Sessions
// middleware resolves the cookie credential pair into a request-scoped
// [corsso.Resolved] and re-issues the renewed pair; the Authenticated,
// Require, and Admin wrappers gate handlers behind authentication and
// authorization.
//
// Guards compose by nesting, and the order is part of the contract:
// Sessions, then Authenticated, then Require or Admin, then the handler.
// A failed guard writes its typed error and never invokes anything
// further down the chain.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	corsso "github.com/holsatia/corsso"
	"github.com/holsatia/corsso/authorize"
)

// Default cookie names for the session credential pair and the admin
// act-as override.
const (
	DefaultSessionIDCookie     = "corsso-session-id"
	DefaultSessionSecretCookie = "corsso-session-secret"
	DefaultActAsCookie         = "corsso-user-id"
)

// Config names the cookies and sets their attributes. Cookie attributes
// are a transport concern, so they live here rather than in the engine.
type Config struct {
	SessionIDCookie     string
	SessionSecretCookie string
	ActAsCookie         string
	Domain              string
	Secure              bool
	SameSite            http.SameSite
}

// DefaultConfig returns the default cookie names with Secure set.
func DefaultConfig() Config {
	return Config{
		SessionIDCookie:     DefaultSessionIDCookie,
		SessionSecretCookie: DefaultSessionSecretCookie,
		ActAsCookie:         DefaultActAsCookie,
		Secure:              true,
		SameSite:            http.SameSiteLaxMode,
	}
}

type resolvedContextKey struct{}

// FromContext returns the resolved session placed by [Sessions].
func FromContext(ctx context.Context) (*corsso.Resolved, bool) {
	resolved, ok := ctx.Value(resolvedContextKey{}).(*corsso.Resolved)
	return resolved, ok
}

// Sessions resolves the session cookies on every request. On success
// the renewed credential pair is re-issued as response cookies and the
// resolved session is attached to the request context. Requests without
// valid credentials are rejected with 401 and their stale cookies
// cleared.
func Sessions(engine *corsso.Engine, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := cookieValue(r, cfg.SessionIDCookie)
			secret := cookieValue(r, cfg.SessionSecretCookie)
			actAs := cookieValue(r, cfg.ActAsCookie)

			resolved, err := engine.Resolve(r.Context(), sessionID, secret, actAs)
			if err != nil {
				if errors.Is(err, corsso.ErrNotLoggedIn) || errors.Is(err, corsso.ErrUserNotFound) {
					ClearSessionCookies(w, cfg)
					writeError(w, http.StatusUnauthorized, map[string]any{
						"error": "not logged in",
					})
					return
				}
				writeError(w, http.StatusInternalServerError, map[string]any{
					"error": "session resolution failed",
				})
				return
			}

			SetSessionCookies(w, cfg, resolved.SessionID, resolved.SessionSecret, resolved.ExpiresAt)
			ctx := context.WithValue(r.Context(), resolvedContextKey{}, resolved)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticated requires a resolved session whose owner account is not
// disabled. The 401 payload carries the verified/locked/failed flags so
// clients can tell the cases apart.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, map[string]any{
				"error": "not logged in",
			})
			return
		}
		if resolved.UserFlags.Disabled() {
			writeError(w, http.StatusUnauthorized, map[string]any{
				"error":                  "not authenticated",
				"verified":               resolved.UserFlags.Verified,
				"locked":                 resolved.UserFlags.Locked,
				"failed_logins_exceeded": resolved.UserFlags.FailedLoginsExceeded,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require gates the handler behind the requirement, evaluated against
// the acting identity. Denials answer 403 with the requirement's name.
func Require(engine *corsso.Engine, requirement authorize.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, map[string]any{
					"error": "not logged in",
				})
				return
			}
			if err := engine.Authorize(resolved, requirement); err != nil {
				writeError(w, http.StatusForbidden, map[string]any{
					"error":       "not authorized",
					"requirement": requirement.Name(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin gates the handler behind the acting identity's admin flag.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, map[string]any{
				"error": "not logged in",
			})
			return
		}
		if !resolved.Actor.Admin {
			writeError(w, http.StatusForbidden, map[string]any{
				"error":       "not authorized",
				"requirement": "Admin",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookies issues the credential pair. Called after login and
// by [Sessions] after each renewal, since every renewal mints a new
// secret.
func SetSessionCookies(w http.ResponseWriter, cfg Config, sessionID, secret string, expires time.Time) {
	http.SetCookie(w, sessionCookie(cfg, cfg.SessionIDCookie, sessionID, expires))
	http.SetCookie(w, sessionCookie(cfg, cfg.SessionSecretCookie, secret, expires))
}

// ClearSessionCookies expires the credential pair and the act-as
// cookie. Called on logout and on failed resolution.
func ClearSessionCookies(w http.ResponseWriter, cfg Config) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, sessionCookie(cfg, cfg.SessionIDCookie, "", expired))
	http.SetCookie(w, sessionCookie(cfg, cfg.SessionSecretCookie, "", expired))
	if cfg.ActAsCookie != "" {
		http.SetCookie(w, sessionCookie(cfg, cfg.ActAsCookie, "", expired))
	}
}

func sessionCookie(cfg Config, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	}
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func writeError(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
