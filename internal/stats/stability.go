package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ShiftRunLength is the number of consecutive points on one side of the average that signals a shift.
const ShiftRunLength = 8

// XmRResult is the output of an Individuals and Moving Range chart.
type XmRResult struct {
	Average float64  `json:"average"`
	AmR     float64  `json:"averageMovingRange"`
	UNPL    float64  `json:"upperLimit"`
	LNPL    float64  `json:"lowerLimit"`
	Signals []Signal `json:"signals,omitempty"`
}

// Signal is a detected special cause variation.
type Signal struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Type  string `json:"type"` // "outlier" or "shift"
}

// CalculateXmR computes natural process limits for values and binds keys to signals.
func CalculateXmR(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{}
	}

	var result XmRResult
	result.Average = Average(values)

	if len(values) > 1 {
		mrSum := 0.0
		for i := 1; i < len(values); i++ {
			mrSum += math.Abs(values[i] - values[i-1])
		}
		result.AmR = mrSum / float64(len(values)-1)
	}

	// 2.66 is Wheeler's scaling constant for individuals.
	result.UNPL = result.Average + 2.66*result.AmR
	result.LNPL = math.Max(0, result.Average-2.66*result.AmR)
	result.Signals = detectSignals(values, result, keys)
	return result
}

func detectSignals(values []float64, xmr XmRResult, keys []string) []Signal {
	keyAt := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}

	var signals []Signal
	for i, v := range values {
		if v > xmr.UNPL || v < xmr.LNPL {
			signals = append(signals, Signal{Index: i, Key: keyAt(i), Type: "outlier"})
		}
	}

	side, run := 0, 0
	for i, v := range values {
		current := cmp.Compare(v, xmr.Average)
		if current != 0 && current == side {
			run++
		} else {
			side, run = current, 1
		}
		if side != 0 && run == ShiftRunLength {
			signals = append(signals, Signal{Index: i, Key: keyAt(i), Type: "shift"})
		}
	}
	return signals
}

func countSignals(signals []Signal, kind string) int {
	n := 0
	for _, s := range signals {
		if s.Type == kind {
			n++
		}
	}
	return n
}

// StabilityWarnings checks cycle times and weekly throughput for special cause variation.
// Cycle times are charted in order of completion. The last throughput week is partial and left out.
func StabilityWarnings(entries []CycleTimeEntry, throughput []int) []string {
	var warnings []string

	if len(entries) > 1 {
		sorted := slices.Clone(entries)
		slices.SortStableFunc(sorted, func(a, b CycleTimeEntry) int {
			return a.EndProgress.Compare(b.EndProgress)
		})
		values := make([]float64, len(sorted))
		keys := make([]string, len(sorted))
		for i, e := range sorted {
			values[i] = float64(e.Duration)
			keys[i] = e.Key
		}

		xmr := CalculateXmR(values, keys)
		var above []string
		for _, s := range xmr.Signals {
			if s.Type == "outlier" && values[s.Index] > xmr.UNPL {
				above = append(above, s.Key)
			}
		}
		if len(above) > 0 {
			shown := above[:min(len(above), 5)]
			warnings = append(warnings, fmt.Sprintf("%d of %d cycle times exceed the upper natural process limit of %.1f days (%s).",
				len(above), len(values), xmr.UNPL, strings.Join(shown, ", ")))
		}
	}

	if len(throughput) > ShiftRunLength {
		complete := throughput[:len(throughput)-1]
		values := make([]float64, len(complete))
		for i, c := range complete {
			values[i] = float64(c)
		}
		if countSignals(CalculateXmR(values, nil).Signals, "shift") > 0 {
			warnings = append(warnings, fmt.Sprintf("Weekly throughput stayed on one side of its average for %d or more weeks. Older history may not reflect the current process.", ShiftRunLength))
		}
	}

	return warnings
}
