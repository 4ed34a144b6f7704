package evaluation

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/factorlab/internal/contracts"
)

// RankIC computes one date's rank information coefficient: the Pearson
// correlation of the tie-averaged ranks of factor scores and forward
// returns, which is the Spearman correlation of the raw values.
//
// The pairwise-complete policy applies first: instruments missing either
// value are dropped, never imputed. When fewer than minSamples complete
// pairs remain, or when either side has zero rank variance (all values
// tied), the date's IC is undefined and (nil, n, nil) is returned with
// the observed pair count.
//
// Floating-point drift outside [-1, 1] is clamped. A non-finite
// correlation after valid input indicates a logic bug and surfaces as
// InternalComputationError.
func RankIC(scores, returns map[string]float64, minSamples int) (*float64, int, error) {
	// Pairwise-complete intersection
	paired := make([]string, 0, len(scores))
	for id := range scores {
		if _, ok := returns[id]; ok {
			paired = append(paired, id)
		}
	}

	n := len(paired)
	if n < minSamples {
		return nil, n, nil
	}

	pairedScores := make(map[string]float64, n)
	pairedReturns := make(map[string]float64, n)
	for _, id := range paired {
		pairedScores[id] = scores[id]
		pairedReturns[id] = returns[id]
	}

	scoreRanks, err := Rank(pairedScores)
	if err != nil {
		var insufficient *contracts.InsufficientDataError
		if errors.As(err, &insufficient) {
			return nil, n, nil
		}
		return nil, n, err
	}

	returnRanks, err := Rank(pairedReturns)
	if err != nil {
		var insufficient *contracts.InsufficientDataError
		if errors.As(err, &insufficient) {
			return nil, n, nil
		}
		return nil, n, err
	}

	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for _, id := range paired {
		x = append(x, scoreRanks[id])
		y = append(y, returnRanks[id])
	}

	ic, defined := pearson(x, y)
	if !defined {
		// Zero variance on one side (all scores or returns tied):
		// correlation is undefined for the date, not an error.
		return nil, n, nil
	}

	// Clamp floating-point drift
	if ic > 1 {
		ic = 1
	} else if ic < -1 {
		ic = -1
	}

	if math.IsNaN(ic) || math.IsInf(ic, 0) {
		return nil, n, &contracts.InternalComputationError{
			Reason: fmt.Sprintf("rank correlation is not finite after clamping (n=%d)", n),
		}
	}

	return &ic, n, nil
}

// pearson computes the Pearson correlation via the standard
// covariance/variance formula. The second return value is false when
// either variance is zero.
func pearson(x, y []float64) (float64, bool) {
	n := float64(len(x))

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}

// Summary holds the aggregate scalars derived from an IC series.
// Nil fields are undefined: MeanIC and HitRate need at least one
// defined entry, ICStd needs two, ICIR additionally needs nonzero
// dispersion.
type Summary struct {
	MeanIC  *float64
	ICStd   *float64
	ICIR    *float64
	HitRate *float64
}

// Summarize aggregates a series over its defined entries only.
// Undefined entries stay in the series for audit but contribute to
// nothing here.
func Summarize(series contracts.ICSeries) Summary {
	defined := series.DefinedValues()
	if len(defined) == 0 {
		return Summary{}
	}

	var sum float64
	positive := 0
	for _, v := range defined {
		sum += v
		if v > 0 {
			positive++
		}
	}
	mean := sum / float64(len(defined))
	hitRate := float64(positive) / float64(len(defined))

	summary := Summary{
		MeanIC:  &mean,
		HitRate: &hitRate,
	}

	if len(defined) < 2 {
		return summary
	}

	// Sample standard deviation (Bessel-corrected)
	var sq float64
	for _, v := range defined {
		diff := v - mean
		sq += diff * diff
	}
	std := math.Sqrt(sq / float64(len(defined)-1))
	summary.ICStd = &std

	if std > 0 {
		ir := mean / std
		summary.ICIR = &ir
	}

	return summary
}
