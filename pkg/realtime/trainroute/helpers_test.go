package trainroute

import (
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
)

var testDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func clockPointer(hour, minute int) *time.Time {
	value := clock(hour, minute)
	return &value
}

func arrival(train string, signature string, scheduled time.Time, actual *time.Time) *ctdf.Announcement {
	return &ctdf.Announcement{
		TrainIdent:        train,
		LocationSignature: signature,
		ActivityType:      ctdf.AnnouncementActivityTypeArrival,
		AdvertisedTime:    scheduled,
		ActualTime:        actual,
	}
}

func departure(train string, signature string, scheduled time.Time, actual *time.Time) *ctdf.Announcement {
	return &ctdf.Announcement{
		TrainIdent:        train,
		LocationSignature: signature,
		ActivityType:      ctdf.AnnouncementActivityTypeDeparture,
		AdvertisedTime:    scheduled,
		ActualTime:        actual,
	}
}

func vias(signatures ...string) []ctdf.ViaLocation {
	var locations []ctdf.ViaLocation
	for i, signature := range signatures {
		locations = append(locations, ctdf.ViaLocation{Signature: signature, Order: i})
	}

	return locations
}

func mustBuild(announcements ...*ctdf.Announcement) ctdf.Route {
	route, err := BuildRoute(Normalize(announcements))
	if err != nil {
		panic(err)
	}

	return route
}
