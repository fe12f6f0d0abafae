package simulation

import (
	"time"

	"guesstimate/internal/stats"
)

// Outcome tallies simulations by weeks-to-completion.
type Outcome struct {
	Trials int
	// Counts[w] is the number of simulations that finished after w weeks.
	Counts []int
	// Capped is the number of walks recorded at MaxWeeks with backlog left.
	Capped int
}

// ForecastPoint is one week of the completion-date distribution.
type ForecastPoint struct {
	Date time.Time `json:"x"`
	// Percentage of simulations finishing in this week.
	Percentage float64 `json:"percentage"`
	// Confidence is the running sum of percentages up to and including this week.
	Confidence float64 `json:"confidence"`
}

// Result holds the percentiles of the simulation, in weeks.
type Result struct {
	P50 int `json:"p50"`
	P85 int `json:"p85"`
	P95 int `json:"p95"`
}

func newOutcome() *Outcome {
	return &Outcome{Counts: make([]int, MaxWeeks+1)}
}

func (o *Outcome) merge(other *Outcome) {
	for weeks, c := range other.Counts {
		o.Counts[weeks] += c
	}
	o.Trials += other.Trials
	o.Capped += other.Capped
}

// Points converts the histogram into dated forecast points, start being the current week.
// Only weeks with at least one finishing simulation are emitted.
func (o *Outcome) Points(start time.Time) []ForecastPoint {
	if o == nil || o.Trials == 0 {
		return nil
	}

	var points []ForecastPoint
	confidence := 0.0
	for weeks, c := range o.Counts {
		if c == 0 {
			continue
		}
		pct := float64(c) / float64(o.Trials) * 100
		confidence += pct
		points = append(points, ForecastPoint{
			Date:       stats.AddWeeks(start, weeks),
			Percentage: pct,
			Confidence: confidence,
		})
	}
	return points
}

// Percentile returns the smallest week count covering at least p (0..1) of the simulations.
func (o *Outcome) Percentile(p float64) int {
	if o == nil || o.Trials == 0 {
		return 0
	}
	target := p * float64(o.Trials)
	seen := 0
	for weeks, c := range o.Counts {
		seen += c
		if float64(seen) >= target && seen > 0 {
			return weeks
		}
	}
	return MaxWeeks
}

// Percentiles summarizes the outcome the way the forecasting tools report it.
func (o *Outcome) Percentiles() Result {
	return Result{
		P50: o.Percentile(0.50),
		P85: o.Percentile(0.85),
		P95: o.Percentile(0.95),
	}
}
