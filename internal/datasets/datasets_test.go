package datasets

import (
	"testing"
	"time"

	"guesstimate/internal/simulation"
	"guesstimate/internal/stats"
)

func entry(key string, size float64, duration int) stats.CycleTimeEntry {
	return stats.CycleTimeEntry{Key: key, Size: size, Duration: duration}
}

func TestBubbles_AccumulateRadius(t *testing.T) {
	entries := []stats.CycleTimeEntry{
		entry("P-1", 3, 2),
		entry("P-2", 3, 2),
		entry("P-3", 5, 4),
		entry("P-4", 3, 2),
	}

	got := Bubbles(entries)
	if len(got) != 2 {
		t.Fatalf("Bubbles() returned %d bubbles, want 2", len(got))
	}
	if got[0] != (Bubble{X: 2, Y: 3, R: 9}) {
		t.Errorf("first bubble = %+v, want {2 3 9}", got[0])
	}
	if got[1] != (Bubble{X: 4, Y: 5, R: 3}) {
		t.Errorf("second bubble = %+v, want {4 5 3}", got[1])
	}
}

func TestSummarizeBySize(t *testing.T) {
	entries := []stats.CycleTimeEntry{
		entry("P-1", 5, 4),
		entry("P-2", 1, 1),
		entry("P-3", 5, 8),
		entry("P-4", 2, 3),
		entry("P-5", 5, 6),
	}

	got := SummarizeBySize(entries)
	if len(got) != 3 {
		t.Fatalf("SummarizeBySize() returned %d groups, want 3", len(got))
	}

	wantSizes := []float64{1, 2, 5}
	for i, s := range got {
		if s.Size != wantSizes[i] {
			t.Errorf("group %d size = %v, want %v", i, s.Size, wantSizes[i])
		}
	}

	five := got[2]
	if five.Count != 3 || five.Duration != 18 {
		t.Errorf("size 5: count=%d duration=%d, want 3 and 18", five.Count, five.Duration)
	}
	if five.Average != 6 || five.Median != 6 {
		t.Errorf("size 5: average=%v median=%v, want 6 and 6", five.Average, five.Median)
	}
	if len(five.Keys) != 3 || five.Keys[0] != "P-1" || five.Keys[2] != "P-5" {
		t.Errorf("size 5 keys = %v", five.Keys)
	}
}

func TestConfidenceBands(t *testing.T) {
	week := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := stats.Event{Date: week, Todo: 12}
	points := []simulation.ForecastPoint{
		{Date: stats.AddWeeks(week, 2), Percentage: 10, Confidence: 10},
		{Date: stats.AddWeeks(week, 3), Percentage: 30, Confidence: 40},
		{Date: stats.AddWeeks(week, 4), Percentage: 30, Confidence: 70},
	}

	tests := []struct {
		name       string
		thresholds []float64
		wantDates  []time.Time
	}{
		{"all reached", []float64{20, 50}, []time.Time{stats.AddWeeks(week, 3), stats.AddWeeks(week, 4)}},
		{"exact threshold", []float64{10}, []time.Time{stats.AddWeeks(week, 2)}},
		{"not reached is omitted", []float64{20, 50, 80}, []time.Time{stats.AddWeeks(week, 3), stats.AddWeeks(week, 4)}},
		{"none reached", []float64{95}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bands := ConfidenceBands(last, points, tt.thresholds)
			if len(bands) != len(tt.wantDates) {
				t.Fatalf("ConfidenceBands() returned %d bands, want %d", len(bands), len(tt.wantDates))
			}
			for i, b := range bands {
				if !b.Points[0].X.Equal(week) || b.Points[0].Y != 12 {
					t.Errorf("band %d start = %+v, want last backlog point", i, b.Points[0])
				}
				if !b.Points[1].X.Equal(tt.wantDates[i]) || b.Points[1].Y != 0 {
					t.Errorf("band %d end = %+v, want %v", i, b.Points[1], tt.wantDates[i])
				}
			}
		})
	}
}

func TestFirstReaching_ToleratesRounding(t *testing.T) {
	points := []simulation.ForecastPoint{{Confidence: 79.99999999999999}}
	if _, ok := FirstReaching(points, 80); !ok {
		t.Error("expected rounding error to be absorbed")
	}
}

func TestBuild_Degenerate(t *testing.T) {
	ds := Build(Input{})

	if ds.All == nil || ds.BySize == nil {
		t.Error("expected empty, non-nil bubble and size datasets")
	}
	if len(ds.Bands) != 0 || ds.Forecast != nil || ds.Percentiles != nil {
		t.Errorf("expected no forecast fields, got %+v", ds)
	}
	if ds.Throughput != (stats.Summary{}) || ds.CycleTime != (stats.Summary{}) {
		t.Errorf("expected zero summaries, got %+v / %+v", ds.Throughput, ds.CycleTime)
	}
}

func TestBuild_WithForecast(t *testing.T) {
	week := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	events := []stats.Event{
		{Date: week, New: 10, Done: 2, Todo: 8},
		{Date: stats.AddWeeks(week, 1), New: 0, Done: 2, Todo: 6},
	}
	forecast := &simulation.Forecast{
		Backlog: 6,
		Points: []simulation.ForecastPoint{
			{Date: stats.AddWeeks(week, 4), Percentage: 100, Confidence: 100},
		},
		Percentiles: simulation.Result{P50: 3, P85: 3, P95: 3},
	}

	ds := Build(Input{
		Events:     events,
		Entries:    []stats.CycleTimeEntry{entry("P-1", 1, 1), entry("P-2", 2, 4)},
		Throughput: []int{1, 2, 3, 4},
		Forecast:   forecast,
	})

	if len(ds.Bands) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(ds.Bands))
	}
	if got := ds.Bands[0].Points[0]; !got.X.Equal(stats.AddWeeks(week, 1)) || got.Y != 6 {
		t.Errorf("band start = %+v, want last event", got)
	}
	if ds.Throughput.Median != 2.5 || ds.Throughput.Sum != 10 || ds.Throughput.Average != 2.5 {
		t.Errorf("Throughput = %+v", ds.Throughput)
	}
	if ds.CycleTime.Count != 2 || ds.CycleTime.Sum != 5 {
		t.Errorf("CycleTime = %+v", ds.CycleTime)
	}
	if len(ds.Timeline.Todo) != 2 || ds.Timeline.Todo[1].Y != 6 {
		t.Errorf("Timeline.Todo = %+v", ds.Timeline.Todo)
	}
	if ds.Percentiles == nil || ds.Percentiles.P85 != 3 {
		t.Errorf("Percentiles = %+v", ds.Percentiles)
	}
}
