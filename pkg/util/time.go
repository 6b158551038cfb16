package util

import (
	"time"
)

// RunDate is the calendar day a train runs on, as midnight in the given zone
func RunDate(t time.Time, location *time.Location) time.Time {
	local := t.In(location)

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}
