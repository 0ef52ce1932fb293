// Package corsso is the single-sign-on backend for a private membership
// organization. It decides whether a user may perform a privileged
// action and manages the full lifecycle of password-based login
// sessions: creation, sliding-window renewal, and revocation.
//
// The package is the public surface. An [Engine], constructed through
// [Builder.Build], orchestrates login, session resolution, password
// resets, and commission transfers. Pure authorization decisions live in
// package authorize, the role taxonomy in package roles, session
// persistence in package session, and HTTP integration in package guard.
//
// # Architecture boundaries
//
// User and commission-assignment records are owned by the caller behind
// the [Directory] interface; each Directory call is assumed atomic.
// Sessions and password-reset tokens are owned by the engine's Redis
// store, where renewal and consumption run as atomic scripts. The role
// taxonomy is process-constant and never written after init.
//
// Engine methods are safe for concurrent use after Build. The engine
// performs no internal locking and runs no background tasks; session
// expiry is a wall-clock comparison at time of use, with Redis TTLs as
// backstop.
package corsso
