package stats

import "time"

// StartOfWeek snaps t to Monday 00:00 in t's location (ISO week start).
func StartOfWeek(t time.Time) time.Time {
	// Go's Weekday starts at Sunday=0. We want Monday to be the anchor.
	offset := int(t.Weekday()) - 1
	if offset < 0 {
		offset = 6 // Sunday
	}
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// AddWeeks moves a week start forward by n calendar weeks.
func AddWeeks(week time.Time, n int) time.Time {
	return week.AddDate(0, 0, 7*n)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func calendarDays(later, earlier time.Time) int {
	// Compare calendar dates in UTC so DST shifts do not shave a day off.
	l := time.Date(later.Year(), later.Month(), later.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(earlier.Year(), earlier.Month(), earlier.Day(), 0, 0, 0, 0, time.UTC)
	return int(l.Sub(e).Hours() / 24)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BusinessDaysBetween counts the weekdays from earlier up to (not including) later's
// calendar day. Times of day are ignored; the result is negative when later precedes earlier.
func BusinessDaysBetween(later, earlier time.Time) int {
	later = startOfDay(later.In(earlier.Location()))
	earlier = startOfDay(earlier)

	diff := calendarDays(later, earlier)
	sign := 1
	if diff < 0 {
		sign = -1
	}

	weeks := diff / 7
	result := weeks * 5
	cursor := earlier.AddDate(0, 0, weeks*7)

	for calendarDays(later, cursor) != 0 {
		if !isWeekend(cursor) {
			result += sign
		}
		cursor = cursor.AddDate(0, 0, sign)
	}
	return result
}
