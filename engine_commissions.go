package corsso

import (
	"context"
	"fmt"

	"github.com/holsatia/corsso/internal/metrics"
	"github.com/holsatia/corsso/roles"
)

// TransferCommission hands the commission to the given user. The current
// occupant, if any, is vacated first so the one-occupant-per-commission
// invariant holds at every point after the operation completes.
// Transferring a commission to its current holder is a no-op.
func (e *Engine) TransferCommission(ctx context.Context, commission roles.Commission, toUserID string) error {
	if e == nil || e.directory == nil {
		return ErrEngineNotReady
	}
	if !commission.Valid() {
		return fmt.Errorf("invalid commission %d", uint8(commission))
	}

	// Fail before vacating anything when the target does not exist.
	if _, err := e.directory.UserByID(ctx, toUserID); err != nil {
		return err
	}

	holder, occupied, err := e.directory.HolderOf(ctx, commission)
	if err != nil {
		return err
	}
	if occupied {
		if holder == toUserID {
			return nil
		}
		if err := e.directory.Vacate(ctx, holder, commission); err != nil {
			return err
		}
	}

	if err := e.directory.Assign(ctx, toUserID, commission); err != nil {
		return err
	}
	e.metricInc(metrics.CommissionTransferred)
	return nil
}

// SetCommissions reconciles the user's commissions against the desired
// set: commissions no longer desired are vacated, new ones are assigned
// (vacating any previous occupant first). Commissions already held are
// untouched.
func (e *Engine) SetCommissions(ctx context.Context, userID string, desired []roles.Commission) error {
	if e == nil || e.directory == nil {
		return ErrEngineNotReady
	}
	for _, commission := range desired {
		if !commission.Valid() {
			return fmt.Errorf("invalid commission %d", uint8(commission))
		}
	}

	current, err := e.directory.CommissionsFor(ctx, userID)
	if err != nil {
		return err
	}

	wanted := make(map[roles.Commission]bool, len(desired))
	for _, commission := range desired {
		wanted[commission] = true
	}
	held := make(map[roles.Commission]bool, len(current))
	for _, commission := range current {
		held[commission] = true
	}

	for _, commission := range current {
		if !wanted[commission] {
			if err := e.directory.Vacate(ctx, userID, commission); err != nil {
				return err
			}
		}
	}

	for _, commission := range desired {
		if held[commission] {
			continue
		}
		if err := e.TransferCommission(ctx, commission, userID); err != nil {
			return err
		}
	}
	return nil
}
