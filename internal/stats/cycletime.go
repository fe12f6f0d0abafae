package stats

import (
	"time"

	"guesstimate/internal/jira"
)

// DefaultProgressStatus is the status whose residency is measured as cycle time.
const DefaultProgressStatus = "In Progress"

// CycleTimeEntry is the measured cycle time of a single sized issue.
type CycleTimeEntry struct {
	Key           string    `json:"key"`
	Size          float64   `json:"sp"`
	StartProgress time.Time `json:"startProgress"`
	EndProgress   time.Time `json:"endProgress"`
	// Duration is in business days.
	Duration int `json:"duration"`
}

// CycleTimeOptions selects the transitions that open and close a cycle.
type CycleTimeOptions struct {
	// StartStatus defaults to DefaultProgressStatus.
	StartStatus string
	// EndStatus optionally constrains the status the item must move to when leaving StartStatus.
	EndStatus string
}

// AnalyzeCycleTimes measures how long each sized issue spent in progress.
//
// The first transition into StartStatus opens the cycle; the first transition out of
// StartStatus after it (into EndStatus, when set) closes it. Later re-entries are ignored.
// Issues without an estimate, or without both transitions, are skipped.
func AnalyzeCycleTimes(issues []jira.Issue, opts CycleTimeOptions) []CycleTimeEntry {
	startStatus := opts.StartStatus
	if startStatus == "" {
		startStatus = DefaultProgressStatus
	}

	var result []CycleTimeEntry
	for _, issue := range issues {
		if issue.Estimate == nil {
			continue
		}

		start, end, ok := progressWindow(issue.History, startStatus, opts.EndStatus)
		if !ok {
			continue
		}

		result = append(result, CycleTimeEntry{
			Key:           issue.Key,
			Size:          *issue.Estimate,
			StartProgress: start,
			EndProgress:   end,
			Duration:      BusinessDaysBetween(end, start),
		})
	}
	return result
}

func progressWindow(history []jira.ChangeItem, startStatus, endStatus string) (time.Time, time.Time, bool) {
	var start *time.Time
	for i := range history {
		item := history[i]
		if item.Field != "status" {
			continue
		}
		if start == nil {
			if item.ToString == startStatus {
				start = &history[i].Date
			}
			continue
		}
		if item.FromString == startStatus && (endStatus == "" || item.ToString == endStatus) {
			return *start, item.Date, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// Durations extracts the business-day durations of entries.
func Durations(entries []CycleTimeEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Duration
	}
	return out
}
