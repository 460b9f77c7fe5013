package mealplan

import (
	"fmt"
	"time"
)

// ParseWeekStart resolves a client-supplied date to the Monday that starts
// its week, truncated to midnight UTC. That normalized date is the storage
// key, so any day of a week addresses the same plan.
func ParseWeekStart(dateString string) (time.Time, error) {
	var t time.Time
	var err error
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err = time.Parse(layout, dateString); err == nil {
			return startOfWeek(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", dateString)
}

func startOfWeek(t time.Time) time.Time {
	diff := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		diff = 6
	}
	d := t.AddDate(0, 0, -diff)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
