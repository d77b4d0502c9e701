package stats

import (
	"slices"

	"apidiff/internal/models"
)

// Latency summarizes replay round-trip times in milliseconds.
func Latency(latencies []int64) models.LatencyStats {
	if len(latencies) == 0 {
		return models.LatencyStats{}
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	slices.Sort(sorted)

	var sum int64
	for _, l := range sorted {
		sum += l
	}

	return models.LatencyStats{
		P50: Percentile(sorted, 50),
		P90: Percentile(sorted, 90),
		P95: Percentile(sorted, 95),
		P99: Percentile(sorted, 99),
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / int64(len(sorted)),
	}
}

// Percentile reads the p-th percentile from an already sorted slice.
func Percentile(sorted []int64, p int) int64 {
	if len(sorted) == 0 {
		return 0
	}

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}
