package datasets

import (
	"cmp"
	"slices"
	"time"

	"guesstimate/internal/simulation"
	"guesstimate/internal/stats"
)

// BubbleRadiusStep is added to a bubble's radius for every entry sharing its (duration, size) pair.
const BubbleRadiusStep = 3

// confidenceEpsilon absorbs rounding in the running sum of percentages.
const confidenceEpsilon = 1e-9

// Thresholds are the confidence levels reported as bands.
var Thresholds = []float64{20, 50, 80}

// Bubble is one point of the duration-vs-size chart.
type Bubble struct {
	X int     `json:"x"` // duration in business days
	Y float64 `json:"y"` // size
	R int     `json:"r"`
}

// SizeSummary aggregates the cycle times of one size.
type SizeSummary struct {
	Size      float64  `json:"sp"`
	Count     int      `json:"count"`
	Duration  int      `json:"duration"`
	Average   float64  `json:"average"`
	Median    float64  `json:"median"`
	Durations []int    `json:"durations"`
	Keys      []string `json:"keys"`
}

// Point is a dated value.
type Point struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Timeline holds the new/done/todo series, one point per event week.
type Timeline struct {
	New  []Point `json:"new"`
	Done []Point `json:"done"`
	Todo []Point `json:"todo"`
}

// Band is the segment from the last known backlog to the week a confidence threshold is crossed.
type Band struct {
	Threshold  float64  `json:"threshold"`
	Confidence float64  `json:"confidence"`
	Points     [2]Point `json:"points"`
}

// Datasets is the chart-ready result of one analysis.
type Datasets struct {
	All      []Bubble      `json:"all"`
	BySize   []SizeSummary `json:"bysp"`
	Timeline Timeline      `json:"timeline"`

	Forecast    []simulation.ForecastPoint `json:"forecast,omitempty"`
	Bands       []Band                     `json:"bands,omitempty"`
	Percentiles *simulation.Result         `json:"percentiles,omitempty"`
	Warnings    []string                   `json:"warnings,omitempty"`

	Throughput stats.Summary `json:"throughput"`
	CycleTime  stats.Summary `json:"cycleTime"`
}

// Input gathers the outputs of the analysis stages. Forecast is nil when forecasting was skipped.
type Input struct {
	Events     []stats.Event
	Entries    []stats.CycleTimeEntry
	Throughput []int
	Forecast   *simulation.Forecast
}

// Build assembles the datasets. Empty inputs produce empty series and zero summaries.
func Build(in Input) *Datasets {
	ds := &Datasets{
		All:        Bubbles(in.Entries),
		BySize:     SummarizeBySize(in.Entries),
		Timeline:   BuildTimeline(in.Events),
		Throughput: stats.Summarize(in.Throughput),
		CycleTime:  stats.Summarize(stats.Durations(in.Entries)),
	}

	if in.Forecast != nil {
		ds.Forecast = in.Forecast.Points
		ds.Percentiles = &in.Forecast.Percentiles
		ds.Warnings = slices.Clone(in.Forecast.Warnings)
		if len(in.Events) > 0 {
			ds.Bands = ConfidenceBands(in.Events[len(in.Events)-1], in.Forecast.Points, Thresholds)
		}
	}

	return ds
}

// Bubbles emits one bubble per distinct (duration, size) pair in first-seen order.
func Bubbles(entries []stats.CycleTimeEntry) []Bubble {
	type pair struct {
		duration int
		size     float64
	}

	all := make([]Bubble, 0)
	index := make(map[pair]int)
	for _, e := range entries {
		k := pair{e.Duration, e.Size}
		i, ok := index[k]
		if !ok {
			i = len(all)
			index[k] = i
			all = append(all, Bubble{X: e.Duration, Y: e.Size})
		}
		all[i].R += BubbleRadiusStep
	}
	return all
}

// SummarizeBySize groups entries by size, ascending.
func SummarizeBySize(entries []stats.CycleTimeEntry) []SizeSummary {
	bySize := make([]SizeSummary, 0)
	index := make(map[float64]int)
	for _, e := range entries {
		i, ok := index[e.Size]
		if !ok {
			i = len(bySize)
			index[e.Size] = i
			bySize = append(bySize, SizeSummary{Size: e.Size, Durations: []int{}, Keys: []string{}})
		}
		s := &bySize[i]
		s.Count++
		s.Duration += e.Duration
		s.Durations = append(s.Durations, e.Duration)
		s.Keys = append(s.Keys, e.Key)
	}

	for i := range bySize {
		bySize[i].Average = stats.Average(bySize[i].Durations)
		bySize[i].Median = stats.Median(bySize[i].Durations)
	}

	slices.SortStableFunc(bySize, func(a, b SizeSummary) int {
		return cmp.Compare(a.Size, b.Size)
	})
	return bySize
}

// BuildTimeline converts events into the new/done/todo series.
func BuildTimeline(events []stats.Event) Timeline {
	tl := Timeline{
		New:  make([]Point, 0, len(events)),
		Done: make([]Point, 0, len(events)),
		Todo: make([]Point, 0, len(events)),
	}
	for _, e := range events {
		tl.New = append(tl.New, Point{X: e.Date, Y: float64(e.New)})
		tl.Done = append(tl.Done, Point{X: e.Date, Y: float64(e.Done)})
		tl.Todo = append(tl.Todo, Point{X: e.Date, Y: float64(e.Todo)})
	}
	return tl
}

// ConfidenceBands pairs the last backlog point with the first forecast point reaching each
// threshold. Thresholds never reached within the horizon are omitted.
func ConfidenceBands(last stats.Event, points []simulation.ForecastPoint, thresholds []float64) []Band {
	var bands []Band
	for _, threshold := range thresholds {
		p, ok := FirstReaching(points, threshold)
		if !ok {
			continue
		}
		bands = append(bands, Band{
			Threshold:  threshold,
			Confidence: p.Confidence,
			Points: [2]Point{
				{X: last.Date, Y: float64(last.Todo)},
				{X: p.Date, Y: 0},
			},
		})
	}
	return bands
}

// FirstReaching returns the first point whose cumulative confidence is at least threshold.
func FirstReaching(points []simulation.ForecastPoint, threshold float64) (simulation.ForecastPoint, bool) {
	for _, p := range points {
		if p.Confidence+confidenceEpsilon >= threshold {
			return p, true
		}
	}
	return simulation.ForecastPoint{}, false
}
