package services

import "time"

// dateOnly normalizes a timestamp to midnight UTC so range endpoints
// compare as calendar dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nextDay is the exclusive upper bound for an inclusive calendar-date range.
func nextDay(t time.Time) time.Time {
	return dateOnly(t).AddDate(0, 0, 1)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthEnd returns the last calendar day of t's month at midnight UTC.
func monthEnd(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, -1)
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearEnd(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of t's ISO week.
func weekStart(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// monthKey formats a month bucket as YYYY-MM.
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
