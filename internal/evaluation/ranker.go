package evaluation

import (
	"sort"

	"github.com/wonny/factorlab/internal/contracts"
)

// Rank converts a sparse per-instrument value map into 1-based ranks.
// Instruments with missing values are represented as absent keys and
// never receive a rank. Tied values receive the average of the tied
// positions so rank-correlation statistics stay unbiased under repeated
// values, e.g. scores [1, 1, 2] rank as [1.5, 1.5, 3].
//
// Returns InsufficientDataError when fewer than 2 valid values remain;
// callers treat that as "undefined for this date", not as fatal.
func Rank(values map[string]float64) (map[string]float64, error) {
	if len(values) < 2 {
		return nil, &contracts.InsufficientDataError{Got: len(values), Need: 2}
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}

	// Value ascending; instrument id breaks ties so the ordering is
	// deterministic (the tie group shares a rank anyway).
	sort.Slice(ids, func(i, j int) bool {
		if values[ids[i]] == values[ids[j]] {
			return ids[i] < ids[j]
		}
		return values[ids[i]] < values[ids[j]]
	})

	ranks := make(map[string]float64, len(ids))
	i := 0
	for i < len(ids) {
		// Find the end of the tie group starting at i
		j := i
		for j+1 < len(ids) && values[ids[j+1]] == values[ids[i]] {
			j++
		}

		// Positions i..j (0-based) share the average of ranks i+1..j+1
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[ids[k]] = avg
		}

		i = j + 1
	}

	return ranks, nil
}
