package corsso

import "github.com/holsatia/corsso/internal/metrics"

// MetricID identifies one of the engine's operation counters.
type MetricID = metrics.ID

// Exported counter IDs for [Engine.MetricsSnapshot] consumers.
const (
	MetricLoginSuccess           = metrics.LoginSuccess
	MetricLoginFailure           = metrics.LoginFailure
	MetricLoginRejectedDisabled  = metrics.LoginRejectedDisabled
	MetricSessionCreated         = metrics.SessionCreated
	MetricSessionRenewed         = metrics.SessionRenewed
	MetricSessionExpired         = metrics.SessionExpired
	MetricSessionRejected        = metrics.SessionRejected
	MetricLogout                 = metrics.Logout
	MetricLogoutAll              = metrics.LogoutAll
	MetricPasswordChanged        = metrics.PasswordChanged
	MetricPasswordChangeRejected = metrics.PasswordChangeRejected
	MetricResetRequested         = metrics.ResetRequested
	MetricResetRejectedPending   = metrics.ResetRejectedPending
	MetricResetConfirmed         = metrics.ResetConfirmed
	MetricResetRejected          = metrics.ResetRejected
	MetricCommissionTransferred  = metrics.CommissionTransferred
	MetricAuthorizationDenied    = metrics.AuthorizationDenied
	MetricAccountDeleted         = metrics.AccountDeleted
	MetricAccountUnlocked        = metrics.AccountUnlocked
)

// MetricsSnapshot returns a point-in-time copy of all counters. Empty
// when metrics are disabled.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	if e == nil {
		return map[MetricID]uint64{}
	}
	return e.metrics.Snapshot()
}
