package contract

import "time"

const DefaultExpiringThreshold = 30 * 24 * time.Hour

// Policy carries the tunables of status derivation.
type Policy struct {
	ExpiringThreshold time.Duration
}

func DefaultPolicy() Policy { return Policy{ExpiringThreshold: DefaultExpiringThreshold} }

// Resolve derives a contract's status from its record, its schedule and now.
// First match wins: administrative, draft, incomplete, expired, expiring, active.
// It reads its inputs only.
func Resolve(c Contract, schedule []Installment, now time.Time, p Policy) Status {
	if c.AdminStatus != nil && c.AdminStatus.Administrative() {
		return *c.AdminStatus
	}
	if !c.Terms().Complete() || c.EndDate == nil {
		return StatusDraft
	}
	if len(schedule) == 0 || c.ActivatedAt == nil {
		return StatusIncomplete
	}
	end := c.EndDate.UTC()
	now = now.UTC()
	if now.After(end) {
		return StatusExpired
	}
	if end.Sub(now) <= p.ExpiringThreshold {
		return StatusExpiring
	}
	return StatusActive
}

// Refresh sweeps overdue installments on c and re-derives its cached status.
// It reports whether either changed. The schedule of an archived or cancelled
// contract is frozen and is not swept.
func Refresh(c *Contract, now time.Time, p Policy) bool {
	changed := false
	if !c.Terminal() {
		c.Installments, changed = SweepOverdue(c.Installments, now)
	}
	st := Resolve(*c, c.Installments, now, p)
	if st != c.Status {
		c.Status = st
		c.StatusUpdatedAt = now.UTC()
		changed = true
	}
	return changed
}
