package stats

import (
	"slices"
	"time"

	"guesstimate/internal/jira"
)

// Event is the weekly activity record of the backlog.
type Event struct {
	// Date is Monday 00:00 of the week.
	Date time.Time `json:"date"`
	New  int       `json:"new"`
	Done int       `json:"done"`
	// Todo is the running backlog after this week: sum(New) - sum(Done) so far.
	Todo int `json:"todo"`
}

// DeriveEvents turns issues into one Event per week with activity, ordered by date.
// Each issue contributes a "new" at its creation week and a "done" at its resolution week.
func DeriveEvents(issues []jira.Issue) []Event {
	raw := make([]Event, 0, 2*len(issues))
	for _, issue := range issues {
		if !issue.Created.IsZero() {
			raw = append(raw, Event{Date: StartOfWeek(issue.Created), New: 1})
		}
		if issue.ResolutionDate != nil {
			raw = append(raw, Event{Date: StartOfWeek(*issue.ResolutionDate), Done: 1})
		}
	}

	slices.SortStableFunc(raw, func(a, b Event) int {
		return a.Date.Compare(b.Date)
	})

	// The seed carries the zero balance and is dropped from the result.
	events := []Event{{}}
	for _, e := range raw {
		last := &events[len(events)-1]
		if len(events) > 1 && last.Date.Equal(e.Date) {
			last.New += e.New
			last.Done += e.Done
			last.Todo += e.New - e.Done
			continue
		}
		events = append(events, Event{
			Date: e.Date,
			New:  e.New,
			Done: e.Done,
			Todo: last.Todo + e.New - e.Done,
		})
	}

	return events[1:]
}

// HasArrivals reports whether any event carries a "new" count.
func HasArrivals(events []Event) bool {
	for _, e := range events {
		if e.New > 0 {
			return true
		}
	}
	return false
}
