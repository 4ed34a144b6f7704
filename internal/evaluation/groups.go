package evaluation

import (
	"fmt"
	"sort"

	"github.com/wonny/factorlab/internal/contracts"
)

// AssignGroups sorts instruments with valid factor scores ascending and
// splits them into nGroups contiguous buckets whose sizes differ by at
// most one (the leading buckets absorb the remainder). Bucket 0 holds
// the lowest scores. Instruments with missing scores are excluded from
// assignment entirely, never defaulted into bucket 0. The split is
// stable and deterministic: equal scores order by instrument id.
func AssignGroups(scores map[string]float64, nGroups int) (map[string]int, error) {
	if nGroups < 2 {
		return nil, &contracts.InvalidConfigurationError{
			Reason: fmt.Sprintf("n_groups must be >= 2, got %d", nGroups),
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] == scores[ids[j]] {
			return ids[i] < ids[j]
		}
		return scores[ids[i]] < scores[ids[j]]
	})

	assignment := make(map[string]int, len(ids))
	base := len(ids) / nGroups
	extra := len(ids) % nGroups

	idx := 0
	for bucket := 0; bucket < nGroups; bucket++ {
		size := base
		if bucket < extra {
			size++
		}
		for k := 0; k < size && idx < len(ids); k++ {
			assignment[ids[idx]] = bucket
			idx++
		}
	}

	return assignment, nil
}

// dateBucketReturns averages forward returns per bucket for one date.
// An instrument without a forward return contributes to no bucket; a
// bucket left with zero members is marked not-ok and is skipped in the
// cross-date fold rather than counted as zero.
func dateBucketReturns(assignment map[string]int, returns map[string]float64, nGroups int) ([]float64, []bool) {
	sums := make([]float64, nGroups)
	counts := make([]int, nGroups)

	for id, bucket := range assignment {
		ret, ok := returns[id]
		if !ok {
			continue
		}
		sums[bucket] += ret
		counts[bucket]++
	}

	means := make([]float64, nGroups)
	populated := make([]bool, nGroups)
	for b := 0; b < nGroups; b++ {
		if counts[b] > 0 {
			means[b] = sums[b] / float64(counts[b])
			populated[b] = true
		}
	}

	return means, populated
}

// groupAccumulator folds per-date bucket returns into cross-date means.
// Each bucket's mean covers only the dates where that bucket was
// non-empty.
type groupAccumulator struct {
	nGroups int
	sums    []float64
	counts  []int
	dates   int
}

func newGroupAccumulator(nGroups int) *groupAccumulator {
	return &groupAccumulator{
		nGroups: nGroups,
		sums:    make([]float64, nGroups),
		counts:  make([]int, nGroups),
	}
}

func (a *groupAccumulator) add(means []float64, populated []bool) {
	contributed := false
	for b := 0; b < a.nGroups; b++ {
		if populated[b] {
			a.sums[b] += means[b]
			a.counts[b]++
			contributed = true
		}
	}
	if contributed {
		a.dates++
	}
}

// result materializes the accumulated state into a GroupBacktestResult.
// long_short_return always represents "long the factor-favored side,
// short the disfavored side": with direction +1 that is top minus
// bottom, with direction -1 the subtraction reverses.
func (a *groupAccumulator) result(direction int, tolerance float64) *contracts.GroupBacktestResult {
	bucketReturns := make([]*float64, a.nGroups)
	bucketDates := make([]int, a.nGroups)
	for b := 0; b < a.nGroups; b++ {
		bucketDates[b] = a.counts[b]
		if a.counts[b] > 0 {
			mean := a.sums[b] / float64(a.counts[b])
			bucketReturns[b] = &mean
		}
	}

	result := &contracts.GroupBacktestResult{
		NGroups:       a.nGroups,
		BucketReturns: bucketReturns,
		BucketDates:   bucketDates,
		Dates:         a.dates,
	}

	bottom := bucketReturns[0]
	top := bucketReturns[a.nGroups-1]
	if bottom != nil && top != nil {
		var spread float64
		if direction < 0 {
			spread = *bottom - *top
		} else {
			spread = *top - *bottom
		}
		result.LongShortReturn = &spread
	}

	result.IsMonotonic = monotonic(bucketReturns, direction, tolerance)

	return result
}

// monotonic reports whether bucket means are non-decreasing (direction
// positive) or non-increasing (direction negative) across the bucket
// index sequence. Adjacent buckets differing by less than the tolerance
// count as ties and do not break monotonicity. Never-populated buckets
// are skipped; fewer than two populated buckets are trivially
// monotonic.
func monotonic(bucketReturns []*float64, direction int, tolerance float64) bool {
	var prev *float64
	for _, current := range bucketReturns {
		if current == nil {
			continue
		}
		if prev != nil {
			step := *current - *prev
			if direction < 0 {
				step = -step
			}
			if step < -tolerance {
				return false
			}
		}
		prev = current
	}
	return true
}
