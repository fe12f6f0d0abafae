package simulation

import (
	"context"
	"fmt"
	"time"

	"guesstimate/internal/jira"
	"guesstimate/internal/stats"
)

// WalkForwardConfig defines the parameters for the backtesting analysis.
type WalkForwardConfig struct {
	LookbackWeeks int // How far back the first checkpoint may be (default 26)
	StepWeeks     int // Weeks between checkpoints (default 2)
	Trials        int // Simulations per checkpoint (default 5000)
}

// ValidationCheckpoint represents a single week in the past where we ran a forecast.
type ValidationCheckpoint struct {
	Date         time.Time `json:"date"`
	Backlog      int       `json:"backlog"`
	ActualWeeks  int       `json:"actual_weeks"`
	PredictedP10 int       `json:"predicted_p10"`
	PredictedP50 int       `json:"predicted_p50"`
	PredictedP85 int       `json:"predicted_p85"`
	PredictedP95 int       `json:"predicted_p95"`
	IsWithinCone bool      `json:"is_within_cone"` // Is actual between P10 and P95?
}

// WalkForwardResult holds the aggregate results of the analysis.
type WalkForwardResult struct {
	AccuracyScore     float64                `json:"accuracy_score"` // share of checkpoints within cone
	Checkpoints       []ValidationCheckpoint `json:"checkpoints"`
	ValidationMessage string                 `json:"validation_message"`
}

// WalkForward replays history: at each checkpoint it forecasts the backlog known at
// that time and compares it with the week the real throughput actually cleared it.
func (e *Engine) WalkForward(ctx context.Context, issues []jira.Issue, now time.Time, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if cfg.LookbackWeeks <= 0 {
		cfg.LookbackWeeks = 26
	}
	if cfg.StepWeeks <= 0 {
		cfg.StepWeeks = 2
	}
	if cfg.Trials <= 0 {
		cfg.Trials = 5000
	}

	result := WalkForwardResult{
		Checkpoints: make([]ValidationCheckpoint, 0),
	}

	sub := NewEngine(Config{Trials: cfg.Trials, Workers: e.cfg.Workers, Seed: e.cfg.Seed, Source: e.cfg.Source})

	// Realized throughput, used to measure the actual burn-down after each checkpoint.
	realized := stats.DeriveEvents(issues)
	if len(realized) == 0 {
		result.ValidationMessage = "No history to backtest against."
		return result, nil
	}
	currentWeek := stats.StartOfWeek(now.In(realized[0].Date.Location()))
	doneByWeek := make(map[int64]int)
	for _, ev := range realized {
		doneByWeek[ev.Date.Unix()] += ev.Done
	}

	hits := 0
	earliest := stats.AddWeeks(currentWeek, -cfg.LookbackWeeks)

	for d := stats.AddWeeks(currentWeek, -cfg.StepWeeks); d.After(earliest); d = stats.AddWeeks(d, -cfg.StepWeeks) {
		// 1. Time Travel: the world as it looked at 'd'
		past := stats.DeriveEvents(issuesAsOf(issues, d))
		if !stats.HasArrivals(past) {
			continue
		}
		backlog := past[len(past)-1].Todo
		if backlog <= 0 {
			continue
		}
		throughput := stats.WeeklyThroughput(past, d.AddDate(0, 0, -1))

		// 2. Actual: weeks until realized deliveries after 'd' covered the backlog
		actual := -1
		delivered := 0
		for w := 0; stats.AddWeeks(d, w).Before(currentWeek); w++ {
			delivered += doneByWeek[stats.AddWeeks(d, w).Unix()]
			if delivered >= backlog {
				actual = w + 1
				break
			}
		}
		if actual < 0 {
			// Not enough items finished yet in real history to verify this checkpoint
			continue
		}

		outcome, err := sub.Run(ctx, backlog, throughput)
		if err != nil {
			return result, err
		}

		cp := ValidationCheckpoint{
			Date:         d,
			Backlog:      backlog,
			ActualWeeks:  actual,
			PredictedP10: outcome.Percentile(0.10),
			PredictedP50: outcome.Percentile(0.50),
			PredictedP85: outcome.Percentile(0.85),
			PredictedP95: outcome.Percentile(0.95),
		}
		if actual >= cp.PredictedP10 && actual <= cp.PredictedP95 {
			cp.IsWithinCone = true
			hits++
		}
		result.Checkpoints = append(result.Checkpoints, cp)
	}

	total := len(result.Checkpoints)
	if total > 0 {
		result.AccuracyScore = float64(hits) / float64(total)
		result.ValidationMessage = fmt.Sprintf("Walk-Forward Analysis: %d/%d (%.0f%%) of actual outcomes fell within the predicted forecast cone (P10-P95).", hits, total, result.AccuracyScore*100)
	} else {
		result.ValidationMessage = "Insufficient historical data prevented meaningful backtesting."
	}

	if result.AccuracyScore < 0.7 && total > 3 {
		result.ValidationMessage += " Warning: Low forecast reliability detected."
	}

	return result, nil
}

// issuesAsOf reconstructs issues as they were known at cutoff: later arrivals are
// dropped and later resolutions are reopened.
func issuesAsOf(issues []jira.Issue, cutoff time.Time) []jira.Issue {
	out := make([]jira.Issue, 0, len(issues))
	for _, issue := range issues {
		if !issue.Created.Before(cutoff) {
			continue
		}
		if issue.ResolutionDate != nil && !issue.ResolutionDate.Before(cutoff) {
			issue.ResolutionDate = nil
		}
		out = append(out, issue)
	}
	return out
}
