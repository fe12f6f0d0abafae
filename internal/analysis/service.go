package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"guesstimate/internal/cache"
	"guesstimate/internal/datasets"
	"guesstimate/internal/jira"
	"guesstimate/internal/metrics"
	"guesstimate/internal/simulation"
	"guesstimate/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Response is the outcome of one analysis.
//
// A nil Error means the query was analyzed; a non-nil Error is the validation message of a
// rejected query. Cached reports that the query was unchanged and the memoized result was served.
type Response struct {
	RunID    string             `json:"runId"`
	Datasets *datasets.Datasets `json:"datasets,omitempty"`
	Error    *string            `json:"error"`
	Cached   bool               `json:"cached"`
}

// Query is one analysis request.
type Query struct {
	JQL string
	// Source overrides the default connection for this query; Identity must then name it.
	Source   jira.Source
	Identity string
}

// Options tunes the analysis pipeline.
type Options struct {
	CycleTime stats.CycleTimeOptions
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs the analysis pipeline. Analyses are serialized: only one runs at a time per
// Service, and the memo holds the result of the last query.
type Service struct {
	source   jira.Source
	identity string
	memo     cache.Store
	engine   *simulation.Engine
	opts     Options

	mu sync.Mutex
}

// NewService wires the pipeline. A nil memo falls back to an in-memory slot.
func NewService(source jira.Source, identity string, memo cache.Store, engine *simulation.Engine, opts Options) *Service {
	if memo == nil {
		memo = cache.NewMemory()
	}
	if engine == nil {
		engine = simulation.NewEngine(simulation.Config{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source:   source,
		identity: identity,
		memo:     memo,
		engine:   engine,
		opts:     opts,
	}
}

// Analyze returns the memoized result when q matches the last query, and runs the
// pipeline otherwise. Retrieval failures are returned as *jira.RetrievalError.
func (s *Service) Analyze(ctx context.Context, q Query) (*Response, error) {
	return s.analyze(ctx, q, true)
}

// Refresh runs the pipeline regardless of the memo and replaces it.
func (s *Service) Refresh(ctx context.Context, q Query) (*Response, error) {
	return s.analyze(ctx, q, false)
}

func (s *Service) analyze(ctx context.Context, q Query, useMemo bool) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, identity := s.resolve(q)
	key := cache.Key(identity, q.JQL)
	runID := uuid.NewString()
	logger := log.With().Str("run", runID).Logger()

	if useMemo {
		entry, err := s.memo.Load(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Msg("Memo lookup failed, recomputing")
		}
		metrics.RecordMemoLookup(entry != nil)
		if entry != nil {
			logger.Debug().Str("jql", q.JQL).Msg("Query unchanged, serving memoized result")
			return &Response{RunID: runID, Datasets: entry.Datasets, Error: entry.Error, Cached: true}, nil
		}
	}

	start := time.Now()
	logger.Info().Str("jql", q.JQL).Str("identity", identity).Msg("Starting analysis")

	resp, err := s.run(ctx, source, q.JQL)
	if err != nil {
		metrics.RecordAnalysis("failed", time.Since(start))
		logger.Error().Err(err).Msg("Analysis failed")
		return nil, err
	}
	resp.RunID = runID

	outcome := "analyzed"
	if resp.Error != nil {
		outcome = "rejected"
	}
	metrics.RecordAnalysis(outcome, time.Since(start))

	if err := s.memo.Save(ctx, cache.Entry{
		Key:      key,
		Datasets: resp.Datasets,
		Error:    resp.Error,
		StoredAt: s.opts.Now(),
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to memoize analysis")
	}

	logger.Info().Str("outcome", outcome).Dur("elapsed", time.Since(start)).Msg("Analysis finished")
	return resp, nil
}

func (s *Service) run(ctx context.Context, source jira.Source, jql string) (*Response, error) {
	if err := source.ValidateJQL(ctx, jql); err != nil {
		var verr *jira.ValidationError
		if errors.As(err, &verr) {
			msg := verr.Error()
			return &Response{Error: &msg}, nil
		}
		return nil, err
	}

	issues, err := source.FetchIssues(ctx, jql)
	if err != nil {
		return nil, err
	}

	ds, err := s.Build(ctx, issues)
	if err != nil {
		return nil, err
	}
	return &Response{Datasets: ds}, nil
}

// Build runs the pure part of the pipeline over already fetched issues.
func (s *Service) Build(ctx context.Context, issues []jira.Issue) (*datasets.Datasets, error) {
	now := s.opts.Now()

	events := stats.DeriveEvents(issues)
	entries := stats.AnalyzeCycleTimes(issues, s.opts.CycleTime)
	throughput := stats.WeeklyThroughput(events, now)

	forecast, err := simulation.Run(ctx, s.engine, events, now)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	log.Debug().
		Int("issues", len(issues)).
		Int("events", len(events)).
		Int("cycleTimes", len(entries)).
		Bool("forecast", forecast != nil).
		Msg("Pipeline stages complete")

	ds := datasets.Build(datasets.Input{
		Events:     events,
		Entries:    entries,
		Throughput: throughput,
		Forecast:   forecast,
	})
	ds.Warnings = append(ds.Warnings, stats.StabilityWarnings(entries, throughput)...)
	return ds, nil
}

// Backtest validates the forecaster against the history of q.
func (s *Service) Backtest(ctx context.Context, q Query, cfg simulation.WalkForwardConfig) (*simulation.WalkForwardResult, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, _ := s.resolve(q)
	if err := source.ValidateJQL(ctx, q.JQL); err != nil {
		var verr *jira.ValidationError
		if errors.As(err, &verr) {
			msg := verr.Error()
			return nil, &msg, nil
		}
		return nil, nil, err
	}

	issues, err := source.FetchIssues(ctx, q.JQL)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.engine.WalkForward(ctx, issues, s.opts.Now(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return &res, nil, nil
}

// Filters lists the saved filters matching name on the default connection.
func (s *Service) Filters(ctx context.Context, name string) ([]jira.Filter, error) {
	return s.source.SearchFilters(ctx, name)
}

func (s *Service) resolve(q Query) (jira.Source, string) {
	if q.Source != nil {
		return q.Source, q.Identity
	}
	return s.source, s.identity
}
