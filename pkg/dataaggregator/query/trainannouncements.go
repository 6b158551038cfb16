package query

import "time"

// TrainAnnouncements asks for every announcement of one train on one run date
type TrainAnnouncements struct {
	TrainIdent string
	RunDate    time.Time
}

// TrainsAtLocations asks for realized announcements of any train at the given
// stations on one run date
type TrainsAtLocations struct {
	Signatures []string
	RunDate    time.Time
}
