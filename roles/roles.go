// Package roles defines the closed membership taxonomy of the corps:
// member statuses, the three circles grouping them, the commissions a
// member can hold, and the named commission groups used for group-level
// authorization checks.
//
// All values in this package are process-wide constants. They are created
// at compile time, never mutated, and safe for unsynchronized concurrent
// reads.
package roles

import (
	"encoding/json"
	"fmt"
)

// Status is the membership classification of a user. Every valid Status
// belongs to exactly one [Circle].
type Status uint8

const (
	// Members of the inner circle.
	StatusEB Status = iota // Ehrenbursche
	StatusCB               // Corpsbursche
	StatusIACB             // inaktiver Corpsbursche
	StatusAH               // Alter Herr

	// Members of the outer circle.
	StatusIACBOB // inaktiver Corpsbursche ohne Band
	StatusBBZ    // Burschenbierzipfler
	StatusF      // Fuchs
	StatusFCK    // Fuchsenconkneipant

	// Guests.
	StatusSpef           // Spefuchs
	StatusVG             // Verkehrsgast
	StatusCorpsschwester // Corpsschwester
	StatusFdC            // Freund des Corps

	statusCount
)

type roleName struct {
	name         string
	abbreviation string
}

var statusNames = [statusCount]roleName{
	StatusEB:             {"Ehrenbursche", "EB"},
	StatusCB:             {"Corpsbursche", "CB"},
	StatusIACB:           {"inaktiver Corpsbursche", "iaCB"},
	StatusAH:             {"Alter Herr", "AH"},
	StatusIACBOB:         {"inaktiver Corpsbursche ohne Band", "iaCBoB"},
	StatusBBZ:            {"Burschenbierzipfler", "BBZ"},
	StatusF:              {"Fuchs", "F"},
	StatusFCK:            {"Fuchsenconkneipant", "FCK"},
	StatusSpef:           {"Spefuchs", "Spef."},
	StatusVG:             {"Verkehrsgast", "VG"},
	StatusCorpsschwester: {"Corpsschwester", ""},
	StatusFdC:            {"Freund des Corps", "FdC"},
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s < statusCount
}

// Name returns the full status name.
func (s Status) Name() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusNames[s].name
}

// Abbreviation returns the short form of the status, or the full name
// when no abbreviation exists.
func (s Status) Abbreviation() string {
	if !s.Valid() {
		return s.Name()
	}
	if abbr := statusNames[s].abbreviation; abbr != "" {
		return abbr
	}
	return statusNames[s].name
}

func (s Status) String() string {
	return s.Abbreviation()
}

// MarshalJSON encodes the status as {"name": ..., "abbreviation": ...}.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid status %d", uint8(s))
	}
	return json.Marshal(map[string]string{
		"name":         s.Name(),
		"abbreviation": s.Abbreviation(),
	})
}

// ParseStatus resolves a status from its full name or abbreviation.
func ParseStatus(value string) (Status, error) {
	for s := Status(0); s < statusCount; s++ {
		if value == statusNames[s].name {
			return s, nil
		}
		// Statuses without an abbreviation store ""; never match that.
		if abbr := statusNames[s].abbreviation; abbr != "" && value == abbr {
			return s, nil
		}
	}
	return 0, fmt.Errorf("no status matching %q", value)
}

// Statuses returns all defined statuses in declaration order.
func Statuses() []Status {
	all := make([]Status, statusCount)
	for s := Status(0); s < statusCount; s++ {
		all[s] = s
	}
	return all
}

// Circle is one of the three membership tiers. Circles are disjoint: a
// status belongs to exactly one circle. For authorization purposes the
// tiers are ordered Inner > Outer > Guests.
type Circle uint8

const (
	CircleInner Circle = iota
	CircleOuter
	CircleGuests

	circleCount
)

var circleNames = [circleCount]string{
	CircleInner:  "INNER",
	CircleOuter:  "OUTER",
	CircleGuests: "GUESTS",
}

// Valid reports whether c is one of the defined circles.
func (c Circle) Valid() bool {
	return c < circleCount
}

func (c Circle) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Circle(%d)", uint8(c))
	}
	return circleNames[c]
}

// Contains reports whether the status is a direct member of the circle.
func (c Circle) Contains(s Status) bool {
	return s.Valid() && CircleOf(s) == c
}

// CircleOf returns the circle a status belongs to. It panics on an
// invalid status: the taxonomy is closed, so an unknown value is a
// programming error rather than a deniable request.
func CircleOf(s Status) Circle {
	switch s {
	case StatusEB, StatusCB, StatusIACB, StatusAH:
		return CircleInner
	case StatusIACBOB, StatusBBZ, StatusF, StatusFCK:
		return CircleOuter
	case StatusSpef, StatusVG, StatusCorpsschwester, StatusFdC:
		return CircleGuests
	}
	panic(fmt.Sprintf("roles: no circle for status %d", uint8(s)))
}

// Commission is a duty a member can hold. Each commission has at most
// one occupant at any time.
type Commission uint8

const (
	// Chargen.
	CommissionSenior Commission = iota
	CommissionConsenior
	CommissionSubsenior
	CommissionFM

	// Ämter.
	CommissionKW
	CommissionHW
	CommissionGW
	CommissionKeilwart
	CommissionEDV

	// Altherrenvorstand.
	CommissionAHV
	CommissionAHVStellv
	CommissionAHKW

	commissionCount
)

var commissionNames = [commissionCount]roleName{
	CommissionSenior:    {"Senior", "xxx"},
	CommissionConsenior: {"Consenior", "xx"},
	CommissionSubsenior: {"Subsenior", "x"},
	CommissionFM:        {"Fuchsmajor", "FM"},
	CommissionKW:        {"CC-Kassenwart", "KW"},
	CommissionHW:        {"Hauswart", "HW"},
	CommissionGW:        {"Getränkewart", "GW"},
	CommissionKeilwart:  {"Keilwart", ""},
	CommissionEDV:       {"EDV-Wart", ""},
	CommissionAHV:       {"Altherrenvorstandsvorsitzender", "AHV"},
	CommissionAHVStellv: {"stellvertretender Altherrenvorstandsvorsitzender", "stellv. AHV"},
	CommissionAHKW:      {"Altherren-Kassenwart", "AHKW"},
}

// Valid reports whether c is one of the defined commissions.
func (c Commission) Valid() bool {
	return c < commissionCount
}

// Name returns the full commission name.
func (c Commission) Name() string {
	if !c.Valid() {
		return fmt.Sprintf("Commission(%d)", uint8(c))
	}
	return commissionNames[c].name
}

// Abbreviation returns the short form of the commission, or the full
// name when no abbreviation exists.
func (c Commission) Abbreviation() string {
	if !c.Valid() {
		return c.Name()
	}
	if abbr := commissionNames[c].abbreviation; abbr != "" {
		return abbr
	}
	return commissionNames[c].name
}

func (c Commission) String() string {
	return c.Abbreviation()
}

// MarshalJSON encodes the commission as {"name": ..., "abbreviation": ...}.
func (c Commission) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid commission %d", uint8(c))
	}
	return json.Marshal(map[string]string{
		"name":         c.Name(),
		"abbreviation": c.Abbreviation(),
	})
}

// ParseCommission resolves a commission from its full name or
// abbreviation.
func ParseCommission(value string) (Commission, error) {
	for c := Commission(0); c < commissionCount; c++ {
		if value == commissionNames[c].name {
			return c, nil
		}
		if abbr := commissionNames[c].abbreviation; abbr != "" && value == abbr {
			return c, nil
		}
	}
	return 0, fmt.Errorf("no commission matching %q", value)
}

// Commissions returns all defined commissions in declaration order.
func Commissions() []Commission {
	all := make([]Commission, commissionCount)
	for c := Commission(0); c < commissionCount; c++ {
		all[c] = c
	}
	return all
}

// CommissionGroup is a named set of commissions used for group-level
// authorization checks.
type CommissionGroup uint8

const (
	GroupCharges CommissionGroup = iota
	GroupCommissions
	GroupAHV

	commissionGroupCount
)

var commissionGroupNames = [commissionGroupCount]string{
	GroupCharges:     "CHARGES",
	GroupCommissions: "COMMISSIONS",
	GroupAHV:         "AHV",
}

var commissionGroups = [commissionGroupCount][]Commission{
	GroupCharges: {
		CommissionSenior, CommissionConsenior, CommissionSubsenior, CommissionFM,
	},
	GroupCommissions: {
		CommissionKW, CommissionHW, CommissionGW, CommissionKeilwart, CommissionEDV,
	},
	GroupAHV: {
		CommissionAHV, CommissionAHVStellv, CommissionAHKW,
	},
}

// Valid reports whether g is one of the defined groups.
func (g CommissionGroup) Valid() bool {
	return g < commissionGroupCount
}

func (g CommissionGroup) String() string {
	if !g.Valid() {
		return fmt.Sprintf("CommissionGroup(%d)", uint8(g))
	}
	return commissionGroupNames[g]
}

// Members returns the commissions belonging to the group. The returned
// slice must not be modified.
func (g CommissionGroup) Members() []Commission {
	if !g.Valid() {
		return nil
	}
	return commissionGroups[g]
}

// Contains reports whether the commission is a member of the group.
func (g CommissionGroup) Contains(c Commission) bool {
	for _, member := range g.Members() {
		if member == c {
			return true
		}
	}
	return false
}
