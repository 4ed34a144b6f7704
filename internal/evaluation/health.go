package evaluation

import (
	"github.com/wonny/factorlab/internal/contracts"
)

// Classification thresholds. A factor is active only when every bar is
// cleared; a non-positive mean IC forces inactive regardless of the
// other statistics.
const (
	ActiveMeanICThreshold  = 0.02
	ActiveICIRThreshold    = 0.3
	ActiveHitRateThreshold = 0.55
)

// Classify maps aggregate statistics to an operational status.
// Undefined mean IC or IC IR (too few defined IC entries) yields
// warning, never active: a factor is not promoted on missing evidence.
func Classify(summary Summary, isMonotonic bool) contracts.Status {
	if summary.MeanIC == nil {
		return contracts.StatusWarning
	}

	if *summary.MeanIC <= 0 {
		return contracts.StatusInactive
	}

	if summary.ICIR != nil && summary.HitRate != nil &&
		*summary.MeanIC > ActiveMeanICThreshold &&
		*summary.ICIR > ActiveICIRThreshold &&
		isMonotonic &&
		*summary.HitRate > ActiveHitRateThreshold {
		return contracts.StatusActive
	}

	return contracts.StatusWarning
}
