// Package calendar derives date-indexed read models from a task collection.
// It never mutates tasks; callers re-derive whenever the collection or the
// selected day changes.
package calendar

import (
	"time"

	"boardsync/domain"
)

// Day identifies a calendar day by its date components, ignoring the time of
// day and location offsets inside the day.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ByDate indexes tasks by the calendar day of their due date. Tasks without
// a parseable due date are excluded. The keys double as the "dates that have
// tasks" set for calendar highlighting.
func ByDate(tasks []domain.Task) map[Day][]domain.Task {
	index := make(map[Day][]domain.Task)
	for _, t := range tasks {
		due, ok := t.DueTime()
		if !ok {
			continue
		}
		day := DayOf(due)
		index[day] = append(index[day], t)
	}
	return index
}

// ForDate returns the tasks due on the selected day, preserving input order.
func ForDate(tasks []domain.Task, day Day) []domain.Task {
	out := []domain.Task{}
	for _, t := range tasks {
		due, ok := t.DueTime()
		if !ok {
			continue
		}
		if DayOf(due) == day {
			out = append(out, t)
		}
	}
	return out
}
