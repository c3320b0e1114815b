package lease

import (
	"strings"
	"time"

	"github.com/warp/lease-engine/generic"
)

// Schedule returns the lease's billing schedule.
func (l Lease) Schedule() generic.Schedule {
	return generic.ScheduleFromMinutes(l.StartDate, l.ChargePeriodMinutes, l.Frequency)
}

// ChargePeriod returns the charge period in its largest exact unit.
func (l Lease) ChargePeriod() generic.Duration {
	return generic.FromMinutes(l.ChargePeriodMinutes)
}

// ComputeEndDate derives the end date from start, charge period and
// frequency without modifying the lease.
func (l Lease) ComputeEndDate() (time.Time, error) {
	return l.Schedule().End()
}

// RecomputeEndDate sets EndDate from the schedule.
func (l *Lease) RecomputeEndDate() error {
	end, err := l.ComputeEndDate()
	if err != nil {
		return err
	}
	l.EndDate = end
	return nil
}

// IsActiveAt reports status == active and the lease not yet ended.
func (l Lease) IsActiveAt(now time.Time) bool {
	return l.Status == StatusActive && l.EndDate.After(now)
}

// DepositOutstanding is the part of the deposit not yet collected.
func (l Lease) DepositOutstanding() generic.Money {
	return generic.NonNegative(l.Deposit.Sub(l.DepositCollectedAmount))
}

// Validate checks every field a stored lease must satisfy.
func (l Lease) Validate() error {
	switch {
	case l.OwnerID == "":
		return invalid("owner_id", "required")
	case l.TenantID == "":
		return invalid("tenant_id", "required")
	case l.AssetID == "":
		return invalid("asset_id", "required")
	case l.StartDate.IsZero():
		return invalid("start_date", "required")
	case l.RentAmount.IsNegative():
		return invalid("rent_amount", "must not be negative")
	case l.ChargePeriodMinutes <= 0:
		return invalid("charge_period_minutes", "must be positive")
	case l.Frequency < 1:
		return invalid("frequency", "must be at least 1")
	case l.Deposit.IsNegative():
		return invalid("deposit", "must not be negative")
	case l.DepositCollectedAmount.IsNegative():
		return invalid("deposit_collected_amount", "must not be negative")
	case l.DepositCollectedAmount.GreaterThan(l.Deposit):
		return invalid("deposit_collected_amount", "exceeds deposit %s", l.Deposit)
	case !l.Status.Valid():
		return invalid("status", "unknown status %q", l.Status)
	case !l.LeaseType.Valid():
		return invalid("lease_type", "unknown lease type %q", l.LeaseType)
	}
	return nil
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// transitions lists allowed status changes. Expired and terminated are
// terminal: nothing leads back to active.
var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusTerminated},
	StatusActive:  {StatusExpired, StatusTerminated},
}

// CanTransition reports whether from -> to is allowed. Staying in the same
// status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransition reports whether the lease may move to status to.
func (l Lease) CanTransition(to Status) bool {
	return CanTransition(l.Status, to)
}

// Transition moves the lease to status to.
func (l *Lease) Transition(to Status) error {
	if !CanTransition(l.Status, to) {
		return &TransitionError{LeaseID: l.ID, From: l.Status, To: to}
	}
	l.Status = to
	return nil
}

// =============================================================================
// DRAFT / ADJUSTMENT VALIDATION
// =============================================================================

func (d PaymentDraft) Validate() error {
	switch {
	case d.TenantID == "":
		return invalid("tenant_id", "required")
	case d.AssetID == "":
		return invalid("asset_id", "required")
	case !d.Amount.IsPositive():
		return invalid("amount", "must be positive")
	case d.Method == MethodAdjustment:
		return invalid("method", "adjustment entries are written by period adjustments only")
	case !d.Method.Valid():
		return invalid("method", "unknown method %q", d.Method)
	}
	return nil
}

// Validate checks the adjustment against the lease it targets.
func (a PeriodAdjustment) Validate(l Lease) error {
	switch {
	case !a.Type.Valid():
		return invalid("type", "must be refund or cancel")
	case a.PeriodNumber < 1 || a.PeriodNumber > l.Frequency:
		return invalid("period_number", "must be between 1 and %d", l.Frequency)
	case !a.Amount.IsPositive():
		return invalid("amount", "must be positive")
	case a.Amount.GreaterThan(l.RentAmount):
		return invalid("amount", "exceeds rent amount %s", l.RentAmount)
	case strings.TrimSpace(a.Reason) == "":
		return invalid("reason", "required")
	}
	return nil
}
