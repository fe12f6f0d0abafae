package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"guesstimate/internal/jira"
)

const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// EstimateField is the custom field the generated estimates are stored in.
const EstimateField = "customfield_10004"

var storyPoints = []float64{1, 2, 3, 5, 8}

type GeneratorConfig struct {
	Scenario     string
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
	// Seed makes the output reproducible; zero seeds from the clock.
	Seed int64
	// UnsizedRatio is the share of issues generated without an estimate.
	UnsizedRatio float64
}

// Generate builds a Jira search response with one arrival per day, ending at cfg.Now.
func Generate(cfg GeneratorConfig) jira.SearchResponse {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	resp := jira.SearchResponse{
		StartAt:    0,
		MaxResults: cfg.Count,
		Total:      cfg.Count,
		Issues:     make([]jira.IssueDTO, 0, cfg.Count),
	}

	// We want the last arrival to be today (cfg.Now)
	// Average arrival rate: 1 per day
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("MCSTEST-%d", i+1)
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)

		// 1. Determine Parameters
		k, lambda := 2.5, 9.5 // Mild: Targeted at ~5.0 day In-Progress residency
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
			if cfg.Distribution == "weibull" {
				lambda = 12.0
			}
		case "drift":
			ratio := float64(i) / float64(cfg.Count)
			k = 2.5 - (1.7 * ratio) // Shift 2.5 -> 0.8
			lambda = 9.5 + (2.5 * ratio)
		}

		// 2. Sample Total Cycle Time (Duration)
		var totalDuration float64
		if cfg.Distribution == "weibull" {
			totalDuration = weibullSample(rng, k, lambda)
		} else {
			// Uniform baseline: 6-11 days
			totalDuration = 6.0 + rng.Float64()*5.0
			if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
				totalDuration += 10 + rng.Float64()*15 // Controlled Black Swans
			}
			if cfg.Scenario == "drift" && i > cfg.Count/2 {
				totalDuration *= 2.0
			}
		}

		issue := newIssue(key, arrival)
		if rng.Float64() >= cfg.UnsizedRatio {
			// Larger items take longer on average
			sp := storyPoints[min(int(totalDuration/4), len(storyPoints)-1)]
			issue.Fields.Raw[EstimateField] = mustJSON(sp)
		}

		// 3. Transitions: Refinement at 15%, In Progress at 40%, Done at 100%
		transitions := []struct {
			at       float64
			from, to string
		}{
			{0.15, "Open", "Refinement"},
			{0.40, "Refinement", "In Progress"},
			{1.00, "In Progress", "Done"},
		}
		for _, tr := range transitions {
			ts := arrival.Add(time.Duration(totalDuration * tr.at * 24 * float64(time.Hour)))
			if !ts.Before(cfg.Now) {
				break
			}
			issue.Changelog.Histories = append(issue.Changelog.Histories, jira.HistoryDTO{
				Created: ts.Format(jiraTimeLayout),
				Items: []jira.ItemDTO{{
					Field: "status", FromString: tr.from, ToString: tr.to,
				}},
			})
			if tr.to == "Done" {
				issue.Fields.ResolutionDate = ts.Format(jiraTimeLayout)
			}
		}

		resp.Issues = append(resp.Issues, issue)
	}

	return resp
}

func newIssue(key string, created time.Time) jira.IssueDTO {
	return jira.IssueDTO{
		Key: key,
		Fields: jira.FieldsDTO{
			Created: created.Format(jiraTimeLayout),
			Raw:     map[string]json.RawMessage{EstimateField: json.RawMessage("null")},
		},
		Changelog: &jira.ChangelogDTO{},
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the response as a search dump readable by jira.FileSource.
func Save(path string, resp jira.SearchResponse) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
