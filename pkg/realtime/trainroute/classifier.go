package trainroute

import (
	"sort"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"golang.org/x/exp/slices"
)

type UnknownDirectionPolicy string

const (
	UnknownDirectionSame UnknownDirectionPolicy = "same"
	UnknownDirectionHide UnknownDirectionPolicy = "hide"
)

const DefaultFreshnessWindow = 15 * time.Minute

type ClassifierConfig struct {
	FreshnessWindow        time.Duration
	UnknownDirectionPolicy UnknownDirectionPolicy
}

// OtherTrainsClassifier places other trains seen along a route into same
// direction and opposite direction buckets per station.
type OtherTrainsClassifier struct {
	Config ClassifierConfig

	Route      ctdf.Route
	TrainIdent string

	LivePositions map[string]*ctdf.TrainPosition
}

// Classify groups the announcements by train, drops stale trains and buckets
// the rest by the station of their most recent realized event.
func (c *OtherTrainsClassifier) Classify(announcements []*ctdf.Announcement, now time.Time) map[string]*ctdf.StationTrains {
	stationTrains := map[string]*ctdf.StationTrains{}

	primarySequence := c.Route.Signatures()
	routeStations := map[string]bool{}
	for _, signature := range primarySequence {
		routeStations[signature] = true
	}

	for _, trainIdent := range trainOrder(announcements) {
		if trainIdent == c.TrainIdent {
			continue
		}

		trainAnnouncements := announcementsForTrain(announcements, trainIdent)

		observation := BuildObservation(trainIdent, trainAnnouncements, routeStations)
		if observation == nil {
			continue
		}

		livePosition := c.LivePositions[trainIdent]
		observation.HasLivePosition = livePosition.IsFresh(now, c.freshnessWindow())

		if !c.IsFresh(observation, now) {
			continue
		}

		observation.Direction = CompareDirectionByStationOrder(primarySequence, observation.StationOrder)

		trains, exists := stationTrains[observation.StationSignature]
		if !exists {
			trains = &ctdf.StationTrains{}
		}

		switch observation.Direction {
		case ctdf.DirectionSame:
			trains.SameDirection = append(trains.SameDirection, observation)
		case ctdf.DirectionOpposite:
			trains.OppositeDirection = append(trains.OppositeDirection, observation)
		default:
			if c.Config.UnknownDirectionPolicy == UnknownDirectionHide {
				continue
			}
			trains.SameDirection = append(trains.SameDirection, observation)
		}

		stationTrains[observation.StationSignature] = trains
	}

	for _, trains := range stationTrains {
		sortObservations(trains.SameDirection)
		sortObservations(trains.OppositeDirection)
	}

	return stationTrains
}

// IsFresh keeps an observation when its latest realized event is recent or
// the train reports a recent live position.
func (c *OtherTrainsClassifier) IsFresh(observation *ctdf.OtherTrainObservation, now time.Time) bool {
	if observation.HasLivePosition {
		return true
	}

	if observation.ActualTime == nil {
		return false
	}

	return now.Sub(*observation.ActualTime) <= c.freshnessWindow()
}

func (c *OtherTrainsClassifier) freshnessWindow() time.Duration {
	if c.Config.FreshnessWindow <= 0 {
		return DefaultFreshnessWindow
	}

	return c.Config.FreshnessWindow
}

// BuildObservation summarises one other train. It is placed at the route
// station of its latest realized event, and its own station order is built
// with the same route logic as the tracked train, framed by its origin and
// destination.
func BuildObservation(trainIdent string, announcements []*ctdf.Announcement, routeStations map[string]bool) *ctdf.OtherTrainObservation {
	var latest *ctdf.Announcement
	for _, announcement := range announcements {
		if !announcement.HasHappened() || !routeStations[announcement.LocationSignature] {
			continue
		}

		if latest == nil || !announcement.ActualTime.Before(*latest.ActualTime) {
			latest = announcement
		}
	}

	if latest == nil {
		return nil
	}

	advertised := latest.AdvertisedTime
	observation := &ctdf.OtherTrainObservation{
		TrainIdent:       trainIdent,
		StationSignature: latest.LocationSignature,

		ActivityType:  latest.ActivityType,
		ScheduledTime: &advertised,
		ActualTime:    latest.ActualTime,
		Track:         latest.Track,

		OriginSignature:      latest.Origin(),
		DestinationSignature: latest.Destination(),
	}

	route, err := BuildRoute(Normalize(announcements))
	if err == nil {
		observation.StationOrder = route.Signatures()
	}

	if origin := observation.OriginSignature; origin != "" && !slices.Contains(observation.StationOrder, origin) {
		observation.StationOrder = append([]string{origin}, observation.StationOrder...)
	}
	if destination := observation.DestinationSignature; destination != "" && !slices.Contains(observation.StationOrder, destination) {
		observation.StationOrder = append(observation.StationOrder, destination)
	}

	return observation
}

func trainOrder(announcements []*ctdf.Announcement) []string {
	var order []string
	seen := map[string]bool{}

	for _, announcement := range announcements {
		if announcement == nil || announcement.TrainIdent == "" || seen[announcement.TrainIdent] {
			continue
		}
		seen[announcement.TrainIdent] = true
		order = append(order, announcement.TrainIdent)
	}

	return order
}

func announcementsForTrain(announcements []*ctdf.Announcement, trainIdent string) []*ctdf.Announcement {
	var filtered []*ctdf.Announcement
	for _, announcement := range announcements {
		if announcement != nil && announcement.TrainIdent == trainIdent {
			filtered = append(filtered, announcement)
		}
	}

	return filtered
}

// Most recent first
func sortObservations(observations []*ctdf.OtherTrainObservation) {
	sort.SliceStable(observations, func(a, b int) bool {
		aTime := observations[a].ActualTime
		bTime := observations[b].ActualTime

		if !timeEqual(aTime, bTime) {
			return timeBefore(bTime, aTime)
		}

		return observations[a].TrainIdent < observations[b].TrainIdent
	})
}
