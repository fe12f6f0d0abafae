package stats

import "time"

// WeeklyThroughput returns the "done" counts of every calendar week from the
// first event's week through now's week, zero-filled, in chronological order.
// The result is indexed by position for uniform sampling.
func WeeklyThroughput(events []Event, now time.Time) []int {
	if len(events) == 0 {
		return nil
	}

	first := StartOfWeek(events[0].Date)
	current := StartOfWeek(now.In(first.Location()))
	if current.Before(first) {
		current = first
	}

	byWeek := make(map[int64]int)
	for _, e := range events {
		byWeek[StartOfWeek(e.Date.In(first.Location())).Unix()] += e.Done
	}

	var counts []int
	for week := first; !week.After(current); week = AddWeeks(week, 1) {
		counts = append(counts, byWeek[week.Unix()])
	}
	return counts
}
