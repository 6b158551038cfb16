package ctdf

import (
	"math"
	"time"
)

type DelayStatus string

const (
	DelayStatusNoInformation DelayStatus = "NoInformation"
	DelayStatusOnTime        DelayStatus = "OnTime"
	DelayStatusDelayed       DelayStatus = "Delayed"
	DelayStatusEarly         DelayStatus = "Early"
)

// Delay is a whole-minute difference between an actual and a scheduled time.
// Known is false when either time was missing.
type Delay struct {
	Minutes int  `groups:"basic"`
	Known   bool `groups:"basic"`
}

var NoDelayInformation = Delay{}

// DelayMinutes rounds the difference between actual and scheduled to the
// nearest minute. Positive means late, negative means early.
func DelayMinutes(scheduled *time.Time, actual *time.Time) Delay {
	if scheduled == nil || actual == nil || scheduled.IsZero() || actual.IsZero() {
		return NoDelayInformation
	}

	minutes := actual.Sub(*scheduled).Minutes()

	return Delay{
		Minutes: int(math.Round(minutes)),
		Known:   true,
	}
}

func (d Delay) Status() DelayStatus {
	switch {
	case !d.Known:
		return DelayStatusNoInformation
	case d.Minutes > 0:
		return DelayStatusDelayed
	case d.Minutes < 0:
		return DelayStatusEarly
	default:
		return DelayStatusOnTime
	}
}
