package main

import (
	"sort"
	"time"
)

// percentile returns the q-th (0..1) percentile of the given latencies,
// zero when there are no samples
func percentile(latencies []time.Duration, q float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * q)
	return sorted[idx]
}
