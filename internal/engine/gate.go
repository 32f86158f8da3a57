package engine

import (
	"time"

	"github.com/lazypower/legacy/internal/store"
)

// DefaultThresholdDays applies when a principal never set a threshold.
const DefaultThresholdDays = 7

const day = 24 * time.Hour

// ShouldNotify decides whether the principal's current inactivity
// episode should fire at now. It is pure: no I/O, no clock.
//
// The boundary is inclusive and measured in whole elapsed days, so a
// principal inactive for exactly ThresholdDays days is eligible.
func ShouldNotify(p *store.Principal, now time.Time) bool {
	last, ok := p.LastActive()
	if !ok {
		return false
	}
	if p.Notified {
		return false
	}
	if p.BeneficiaryContact == "" || p.BeneficiaryName == "" {
		return false
	}
	return ElapsedDays(last, now) >= ThresholdDays(p)
}

// ThresholdDays returns the principal's threshold, or the default when
// unset or non-positive.
func ThresholdDays(p *store.Principal) int {
	if p.ThresholdDays == nil || *p.ThresholdDays <= 0 {
		return DefaultThresholdDays
	}
	return *p.ThresholdDays
}

// ElapsedDays returns floor((now - last) / 24h).
func ElapsedDays(last, now time.Time) int {
	d := now.Sub(last)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}
