package authorize

import (
	"fmt"

	"github.com/holsatia/corsso/roles"
)

// Per-convent policy. The rules are deliberately hand-coded: they are
// corps statute, not derivable from the circle ordering.

func canSitAHC(sub Subject) bool {
	return sub.Status == roles.StatusAH ||
		sub.Status == roles.StatusBBZ ||
		sub.Holds(roles.CommissionSenior)
}

func canVoteAHC(sub Subject) bool {
	return sub.Status == roles.StatusAH
}

func canSitCC(sub Subject) bool {
	return roles.CircleOf(sub.Status) == roles.CircleInner
}

func canVoteCC(sub Subject) bool {
	return sub.Status == roles.StatusCB || sub.HoldsAny(roles.GroupAHV)
}

func canSitFC(sub Subject) bool {
	circle := roles.CircleOf(sub.Status)
	return circle == roles.CircleInner || circle == roles.CircleOuter
}

func canVoteFC(sub Subject) bool {
	return sub.Status == roles.StatusF || sub.Holds(roles.CommissionFM)
}

// checkConvent panics on an unknown convent: the table covers the closed
// taxonomy, so a miss is a configuration error.
func checkConvent(sub Subject, auth roles.ConventAuthorization) bool {
	switch auth.Convent {
	case roles.ConventAHC:
		if auth.Vote {
			return canVoteAHC(sub)
		}
		return canSitAHC(sub)
	case roles.ConventFCC:
		// The FCC has no separate vote tier.
		return roles.CircleOf(sub.Status) == roles.CircleInner
	case roles.ConventCC:
		if auth.Vote {
			return canVoteCC(sub)
		}
		return canSitCC(sub)
	case roles.ConventFC:
		if auth.Vote {
			return canVoteFC(sub)
		}
		return canSitFC(sub)
	}
	panic(fmt.Sprintf("authorize: unknown convent %d", uint8(auth.Convent)))
}
