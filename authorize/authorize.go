// Package authorize implements the pure authorization decisions of the
// SSO: given a snapshot of a user and a declared requirement, it answers
// allow or deny. Decisions have no side effects and depend only on the
// subject snapshot and the fixed policy tables in this package.
//
// An admin subject satisfies every requirement unconditionally; the
// override is checked before any rule is evaluated.
package authorize

import (
	"fmt"
	"strings"

	"github.com/holsatia/corsso/roles"
)

// Subject is the snapshot of a user that authorization decisions are
// made against: status, admin flag, and the commissions held at the time
// of the check.
type Subject struct {
	Status      roles.Status
	Admin       bool
	Commissions []roles.Commission
}

// Holds reports whether the subject holds the given commission.
func (s Subject) Holds(c roles.Commission) bool {
	for _, held := range s.Commissions {
		if held == c {
			return true
		}
	}
	return false
}

// HoldsAny reports whether any of the subject's commissions belongs to
// the group.
func (s Subject) HoldsAny(g roles.CommissionGroup) bool {
	for _, held := range s.Commissions {
		if g.Contains(held) {
			return true
		}
	}
	return false
}

// Requirement is a named authorization rule. Name is used for client
// display on denial.
type Requirement interface {
	Name() string
	Satisfied(Subject) bool
}

// Authorize reports whether the subject meets the requirement. The admin
// wildcard short-circuits every rule.
func Authorize(sub Subject, req Requirement) bool {
	if sub.Admin {
		return true
	}
	return req.Satisfied(sub)
}

// MinCircle requires membership of at least the given circle, using the
// ordering Inner > Outer > Guests: an inner-circle member satisfies a
// Guests requirement, a guest does not satisfy an Inner requirement.
type MinCircle roles.Circle

func (m MinCircle) Name() string {
	return roles.Circle(m).String()
}

// Satisfied panics on an unknown circle value: the requirement tables
// are process constants, so an unknown circle is a configuration error,
// not a denial.
func (m MinCircle) Satisfied(sub Subject) bool {
	circle := roles.CircleOf(sub.Status)
	switch roles.Circle(m) {
	case roles.CircleInner:
		return circle == roles.CircleInner
	case roles.CircleOuter:
		return circle == roles.CircleInner || circle == roles.CircleOuter
	case roles.CircleGuests:
		return true
	}
	panic(fmt.Sprintf("authorize: unknown circle %d", uint8(m)))
}

// Group requires holding at least one commission of the group.
type Group roles.CommissionGroup

func (g Group) Name() string {
	return roles.CommissionGroup(g).String()
}

func (g Group) Satisfied(sub Subject) bool {
	return sub.HoldsAny(roles.CommissionGroup(g))
}

// Convent requires the attend or vote permission of a convent, per the
// policy table in convents.go.
type Convent roles.ConventAuthorization

func (c Convent) Name() string {
	return roles.ConventAuthorization(c).String()
}

func (c Convent) Satisfied(sub Subject) bool {
	return checkConvent(sub, roles.ConventAuthorization(c))
}

type allOf struct {
	requirements []Requirement
}

// AllOf is the conjunction of the given requirements. Its name joins the
// component names with " & ".
func AllOf(requirements ...Requirement) Requirement {
	return allOf{requirements: requirements}
}

func (a allOf) Name() string {
	return joinNames(a.requirements, " & ")
}

func (a allOf) Satisfied(sub Subject) bool {
	for _, req := range a.requirements {
		if !req.Satisfied(sub) {
			return false
		}
	}
	return true
}

type anyOf struct {
	requirements []Requirement
}

// AnyOf is the disjunction of the given requirements. Its name joins the
// component names with " | ".
func AnyOf(requirements ...Requirement) Requirement {
	return anyOf{requirements: requirements}
}

func (a anyOf) Name() string {
	return joinNames(a.requirements, " | ")
}

func (a anyOf) Satisfied(sub Subject) bool {
	for _, req := range a.requirements {
		if req.Satisfied(sub) {
			return true
		}
	}
	return false
}

func joinNames(requirements []Requirement, separator string) string {
	names := make([]string, len(requirements))
	for i, req := range requirements {
		names[i] = req.Name()
	}
	return strings.Join(names, separator)
}
