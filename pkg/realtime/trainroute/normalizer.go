package trainroute

import (
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// StationAggregate merges every announcement a train has at one station.
// Arrival facts and departure facts are tracked separately so that a
// departure event never clears what an arrival established and vice versa.
type StationAggregate struct {
	Signature string

	ScheduledArrival   *time.Time
	ScheduledDeparture *time.Time
	EstimatedArrival   *time.Time
	EstimatedDeparture *time.Time
	ActualArrival      *time.Time
	ActualDeparture    *time.Time

	Track        string
	ArrivalTrack string

	Arrived  bool
	Departed bool
	Canceled bool

	ViaFrom []ctdf.ViaLocation
	ViaTo   []ctdf.ViaLocation

	FromLocations []string
	ToLocations   []string
}

// ScheduledTime is the earliest advertised time at the station and is the
// key the route is ordered by.
func (s *StationAggregate) ScheduledTime() *time.Time {
	switch {
	case s.ScheduledArrival == nil:
		return s.ScheduledDeparture
	case s.ScheduledDeparture == nil:
		return s.ScheduledArrival
	case s.ScheduledDeparture.Before(*s.ScheduledArrival):
		return s.ScheduledDeparture
	default:
		return s.ScheduledArrival
	}
}

// ActualTime is the most recent realized time at the station
func (s *StationAggregate) ActualTime() *time.Time {
	if s.Departed && s.ActualDeparture != nil {
		return s.ActualDeparture
	}

	return s.ActualArrival
}

func (s *StationAggregate) DisplayTrack() string {
	if s.Track != "" {
		return s.Track
	}

	return s.ArrivalTrack
}

func (s *StationAggregate) applyArrival(announcement *ctdf.Announcement) {
	if !announcement.HasHappened() && s.Arrived {
		return
	}

	advertised := announcement.AdvertisedTime
	s.ScheduledArrival = &advertised
	s.EstimatedArrival = announcement.EstimatedTime

	if announcement.Track != "" {
		s.ArrivalTrack = announcement.Track
	}

	if announcement.HasHappened() {
		s.Arrived = true
		s.ActualArrival = announcement.ActualTime
	}
}

func (s *StationAggregate) applyDeparture(announcement *ctdf.Announcement) {
	if !announcement.HasHappened() && s.Departed {
		return
	}

	advertised := announcement.AdvertisedTime
	s.ScheduledDeparture = &advertised
	s.EstimatedDeparture = announcement.EstimatedTime

	if announcement.Track != "" {
		s.Track = announcement.Track
	}

	if announcement.HasHappened() {
		s.Departed = true
		s.ActualDeparture = announcement.ActualTime
	}
}

// StationAggregates keeps aggregates in the order their signature was first
// seen in the input.
type StationAggregates struct {
	order       []string
	bySignature map[string]*StationAggregate
}

func (s *StationAggregates) Len() int {
	return len(s.order)
}

func (s *StationAggregates) Get(signature string) *StationAggregate {
	return s.bySignature[signature]
}

func (s *StationAggregates) All() []*StationAggregate {
	aggregates := make([]*StationAggregate, 0, len(s.order))
	for _, signature := range s.order {
		aggregates = append(aggregates, s.bySignature[signature])
	}

	return aggregates
}

// Normalize groups raw announcements by station signature. Announcements
// that have not happened yet are kept so that the full planned route is known.
func Normalize(announcements []*ctdf.Announcement) *StationAggregates {
	aggregates := &StationAggregates{
		bySignature: map[string]*StationAggregate{},
	}

	for _, announcement := range announcements {
		if announcement == nil || announcement.LocationSignature == "" {
			continue
		}

		aggregate, exists := aggregates.bySignature[announcement.LocationSignature]
		if !exists {
			aggregate = &StationAggregate{
				Signature: announcement.LocationSignature,
			}
			aggregates.bySignature[announcement.LocationSignature] = aggregate
			aggregates.order = append(aggregates.order, announcement.LocationSignature)
		}

		switch announcement.ActivityType {
		case ctdf.AnnouncementActivityTypeArrival:
			aggregate.applyArrival(announcement)
		case ctdf.AnnouncementActivityTypeDeparture:
			aggregate.applyDeparture(announcement)
		}

		if announcement.Canceled {
			aggregate.Canceled = true
		}

		aggregate.ViaFrom = unionViaLocations(aggregate.ViaFrom, announcement.ViaFromLocations)
		aggregate.ViaTo = unionViaLocations(aggregate.ViaTo, announcement.ViaToLocations)

		aggregate.FromLocations = unionStrings(aggregate.FromLocations, announcement.FromLocations)
		aggregate.ToLocations = unionStrings(aggregate.ToLocations, announcement.ToLocations)
	}

	return aggregates
}

func unionViaLocations(existing []ctdf.ViaLocation, additional []ctdf.ViaLocation) []ctdf.ViaLocation {
	for _, via := range additional {
		if via.Signature == "" {
			continue
		}

		if !slices.ContainsFunc(existing, func(current ctdf.ViaLocation) bool {
			return current.Signature == via.Signature
		}) {
			existing = append(existing, via)
		}
	}

	return existing
}

func unionStrings(existing []string, additional []string) []string {
	for _, value := range additional {
		if value != "" && !slices.Contains(existing, value) {
			existing = append(existing, value)
		}
	}

	return existing
}
