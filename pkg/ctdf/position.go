package ctdf

import "time"

type TrainPosition struct {
	TrainIdent string `groups:"basic"`

	Location Location `groups:"basic"`
	Speed    *float64 `groups:"basic"`
	Bearing  *float64 `groups:"basic"`

	Timestamp time.Time `groups:"basic"`
}

// IsFresh reports whether the position was recorded within window of now
func (p *TrainPosition) IsFresh(now time.Time, window time.Duration) bool {
	if p == nil || p.Timestamp.IsZero() {
		return false
	}

	return now.Sub(p.Timestamp) <= window
}
