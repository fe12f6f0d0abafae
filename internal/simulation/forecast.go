package simulation

import (
	"context"
	"time"

	"guesstimate/internal/stats"

	"github.com/rs/zerolog/log"
)

// Forecast is the completion-date projection of the current backlog.
type Forecast struct {
	Backlog     int             `json:"backlog"`
	Start       time.Time       `json:"start"`
	Trials      int             `json:"trials"`
	Points      []ForecastPoint `json:"points"`
	Percentiles Result          `json:"percentiles"`
	// Capped counts simulations that hit MaxWeeks without clearing the backlog.
	Capped     int      `json:"capped"`
	Volatility float64  `json:"volatility"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Run forecasts when the backlog in events will be cleared, sampling the weekly
// throughput observed between the first event and now.
//
// Forecasting is skipped (nil, nil) when no event carries an arrival or there is
// no throughput history.
func Run(ctx context.Context, engine *Engine, events []stats.Event, now time.Time) (*Forecast, error) {
	if !stats.HasArrivals(events) {
		log.Debug().Int("events", len(events)).Msg("Only done events, skipping forecast")
		return nil, nil
	}

	throughput := stats.WeeklyThroughput(events, now)
	if len(throughput) == 0 {
		return nil, nil
	}

	backlog := events[len(events)-1].Todo
	start := stats.StartOfWeek(now.In(events[0].Date.Location()))

	outcome, err := engine.Run(ctx, backlog, throughput)
	if err != nil {
		return nil, err
	}

	f := &Forecast{
		Backlog:     backlog,
		Start:       start,
		Trials:      outcome.Trials,
		Points:      outcome.Points(start),
		Percentiles: outcome.Percentiles(),
		Capped:      outcome.Capped,
		Volatility:  CalculateFatTail(throughput),
		Warnings:    forecastWarnings(throughput, outcome),
	}

	log.Debug().
		Int("backlog", backlog).
		Int("weeks", len(throughput)).
		Int("p50", f.Percentiles.P50).
		Int("p85", f.Percentiles.P85).
		Msg("Forecast complete")

	return f, nil
}
