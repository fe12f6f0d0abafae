package simulation

import (
	"context"
	"testing"
	"time"

	"guesstimate/internal/stats"
)

func TestRun_SkipsWhenOnlyDoneEvents(t *testing.T) {
	week := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	events := []stats.Event{
		{Date: week, Done: 2, Todo: -2},
		{Date: stats.AddWeeks(week, 1), Done: 1, Todo: -3},
	}

	f, err := Run(context.Background(), NewEngine(Config{Trials: 10}), events, stats.AddWeeks(week, 2))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f != nil {
		t.Errorf("Expected no forecast, got %+v", f)
	}
}

func TestRun_SkipsWithoutEvents(t *testing.T) {
	f, err := Run(context.Background(), NewEngine(Config{Trials: 10}), nil, time.Now())
	if err != nil || f != nil {
		t.Errorf("Run(nil events) = %+v, %v; want nil, nil", f, err)
	}
}

func TestRun_ForecastsBacklogFromLatestTodo(t *testing.T) {
	week := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	// Four weeks, each delivering 2, leaving 8 open at the end.
	events := []stats.Event{
		{Date: week, New: 10, Done: 2, Todo: 8},
		{Date: stats.AddWeeks(week, 1), New: 2, Done: 2, Todo: 8},
		{Date: stats.AddWeeks(week, 2), New: 2, Done: 2, Todo: 8},
		{Date: stats.AddWeeks(week, 3), New: 2, Done: 2, Todo: 8},
	}
	now := stats.AddWeeks(week, 3).AddDate(0, 0, 2)

	engine := NewEngine(Config{Trials: 500, Source: &sequenceSource{seq: []int{3, 1, 0, 2}}})
	f, err := Run(context.Background(), engine, events, now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f == nil {
		t.Fatal("Expected a forecast")
	}

	if f.Backlog != 8 {
		t.Errorf("Backlog = %d, want 8", f.Backlog)
	}
	if !f.Start.Equal(stats.AddWeeks(week, 3)) {
		t.Errorf("Start = %v, want current week", f.Start)
	}
	if len(f.Points) != 1 || f.Points[0].Confidence != 100 {
		t.Fatalf("Expected a single 100%% point, got %+v", f.Points)
	}
	if want := stats.AddWeeks(week, 7); !f.Points[0].Date.Equal(want) {
		t.Errorf("Completion date = %v, want %v", f.Points[0].Date, want)
	}
	if f.Percentiles.P85 != 4 {
		t.Errorf("P85 = %d, want 4", f.Percentiles.P85)
	}
	if f.Capped != 0 || len(f.Warnings) != 0 {
		t.Errorf("Unexpected cap/warnings: %d %v", f.Capped, f.Warnings)
	}
}
