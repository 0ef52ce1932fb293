// Package metrics provides lock-free in-process counters for engine
// operations. Counters are padded to avoid false sharing on the login
// and resolve hot paths; Snapshot returns a consistent-enough copy for
// scraping without stopping writers.
package metrics

import "sync/atomic"

// ID identifies a single counter.
type ID uint8

const (
	LoginSuccess ID = iota
	LoginFailure
	LoginRejectedDisabled
	SessionCreated
	SessionRenewed
	SessionExpired
	SessionRejected
	Logout
	LogoutAll
	PasswordChanged
	PasswordChangeRejected
	ResetRequested
	ResetRejectedPending
	ResetConfirmed
	ResetRejected
	CommissionTransferred
	AuthorizationDenied
	AccountDeleted
	AccountUnlocked

	idCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of counters. A nil *Metrics is a valid no-op
// receiver, so callers never have to branch on whether metrics are
// enabled.
type Metrics struct {
	counters [idCount]paddedCounter
}

// New returns an enabled Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// Inc increments the counter. No-op on a nil receiver or unknown ID.
func (m *Metrics) Inc(id ID) {
	if m == nil || id >= idCount {
		return
	}
	m.counters[id].value.Add(1)
}

// Get returns the current value of the counter.
func (m *Metrics) Get(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return m.counters[id].value.Load()
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() map[ID]uint64 {
	snapshot := make(map[ID]uint64, idCount)
	if m == nil {
		return snapshot
	}
	for id := ID(0); id < idCount; id++ {
		snapshot[id] = m.counters[id].value.Load()
	}
	return snapshot
}
