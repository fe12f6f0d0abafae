package simulation

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"guesstimate/internal/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxWeeks caps a single random walk. A walk that has not burnt down the
	// backlog by then is recorded as finishing at MaxWeeks.
	MaxWeeks = 104
	// DefaultTrials is the number of simulations per forecast.
	DefaultTrials = 1_000_000

	ctxCheckInterval = 1 << 16
)

// ErrNoThroughput is returned when there is no history to sample from.
var ErrNoThroughput = errors.New("no historical throughput to sample from")

// RandomSource picks a uniform index in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// Config tunes the engine.
type Config struct {
	Trials  int
	Workers int
	// Seed makes batch sources reproducible; zero seeds from the clock.
	Seed int64
	// Source, when set, drives every trial sequentially on the calling goroutine.
	Source RandomSource
}

// Engine performs the Monte-Carlo simulation.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.Trials <= 0 {
		cfg.Trials = DefaultTrials
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{cfg: cfg}
}

// Trials returns the configured number of simulations.
func (e *Engine) Trials() int {
	return e.cfg.Trials
}

// Run simulates burning down backlog by sampling weekly throughput and returns
// the histogram of weeks-to-completion.
func (e *Engine) Run(ctx context.Context, backlog int, throughput []int) (*Outcome, error) {
	if len(throughput) == 0 {
		return nil, ErrNoThroughput
	}

	outcome := newOutcome()

	if e.cfg.Source != nil {
		if err := runBatch(ctx, e.cfg.Source, backlog, throughput, e.cfg.Trials, outcome); err != nil {
			return nil, err
		}
		metrics.RecordSimulationTrials(e.cfg.Trials)
		return outcome, nil
	}

	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	workers := min(e.cfg.Workers, e.cfg.Trials)
	per := e.cfg.Trials / workers
	extra := e.cfg.Trials % workers

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := per
		if w < extra {
			n++
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))

		g.Go(func() error {
			local := newOutcome()
			if err := runBatch(gctx, rng, backlog, throughput, n, local); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			outcome.merge(local)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RecordSimulationTrials(outcome.Trials)
	return outcome, nil
}

func runBatch(ctx context.Context, rng RandomSource, backlog int, throughput []int, trials int, into *Outcome) error {
	for i := 0; i < trials; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		weeks, finished := simulateTrial(rng, backlog, throughput)
		into.Counts[weeks]++
		if !finished {
			into.Capped++
		}
		into.Trials++
	}
	return nil
}

// simulateTrial runs one random walk. finished is false when the walk hit MaxWeeks
// with backlog left; that walk is still recorded at MaxWeeks.
func simulateTrial(rng RandomSource, backlog int, throughput []int) (weeks int, finished bool) {
	remaining := backlog

	for remaining > 0 && weeks < MaxWeeks {
		weeks++
		// Randomly sample a week from history
		remaining -= throughput[rng.Intn(len(throughput))]
	}

	return weeks, remaining <= 0
}
