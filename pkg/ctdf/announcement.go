package ctdf

import "time"

type AnnouncementActivityType string

const (
	AnnouncementActivityTypeArrival   AnnouncementActivityType = "Ankomst"
	AnnouncementActivityTypeDeparture AnnouncementActivityType = "Avgang"
)

// Announcement is a single arrival or departure record for one train at one
// station, as published by the upstream timetable service. A train normally
// has two announcements per intermediate station.
type Announcement struct {
	TrainIdent        string
	LocationSignature string
	ActivityType      AnnouncementActivityType

	AdvertisedTime time.Time
	EstimatedTime  *time.Time
	ActualTime     *time.Time

	Track    string
	Canceled bool

	FromLocations []string
	ToLocations   []string

	ViaFromLocations []ViaLocation
	ViaToLocations   []ViaLocation
}

// ViaLocation is an unannounced station hint. Order is only meaningful within
// the list it was published in.
type ViaLocation struct {
	Signature string `groups:"basic"`
	Order     int    `groups:"basic"`
}

func (a *Announcement) IsArrival() bool {
	return a.ActivityType == AnnouncementActivityTypeArrival
}

func (a *Announcement) IsDeparture() bool {
	return a.ActivityType == AnnouncementActivityTypeDeparture
}

// HasHappened reports whether the upstream service has recorded an actual time
func (a *Announcement) HasHappened() bool {
	return a.ActualTime != nil && !a.ActualTime.IsZero()
}

func (a *Announcement) Origin() string {
	if len(a.FromLocations) == 0 {
		return ""
	}

	return a.FromLocations[0]
}

func (a *Announcement) Destination() string {
	if len(a.ToLocations) == 0 {
		return ""
	}

	return a.ToLocations[len(a.ToLocations)-1]
}
