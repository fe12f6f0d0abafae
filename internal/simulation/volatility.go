package simulation

import (
	"fmt"
	"slices"
)

// FatTailThreshold is the P98/P50 ratio above which weekly delivery is considered bursty.
const FatTailThreshold = 5.6

// CalculateFatTail calculates the P98/P50 ratio of weekly throughput.
func CalculateFatTail(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	sorted := slices.Clone(counts)
	slices.Sort(sorted)

	p50 := float64(sorted[int(float64(len(sorted))*0.50)])
	p98 := float64(sorted[int(float64(len(sorted))*0.98)])

	if p50 == 0 {
		if p98 > 0 {
			return 10.0 // Symbolic high value for sparse processes
		}
		return 1.0
	}
	return p98 / p50
}

func forecastWarnings(throughput []int, outcome *Outcome) []string {
	var warnings []string

	total := 0
	for _, c := range throughput {
		total += c
	}
	if total == 0 {
		warnings = append(warnings, "No historical throughput found for the selected query. Every simulation ran into the horizon cap, the completion date is effectively unknown.")
		return warnings
	}

	if outcome.Capped > 0 {
		pct := float64(outcome.Capped) / float64(outcome.Trials) * 100
		warnings = append(warnings, fmt.Sprintf("%.1f%% of simulations did not clear the backlog within %d weeks and were recorded at the cap.", pct, MaxWeeks))
	}

	if CalculateFatTail(throughput) > FatTailThreshold {
		warnings = append(warnings, "Weekly throughput is highly bursty (fat tail). Forecast ranges will be wide.")
	}
	return warnings
}
