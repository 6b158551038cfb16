package ctdf

import "time"

type Direction string

const (
	DirectionSame     Direction = "Same"
	DirectionOpposite Direction = "Opposite"
	DirectionUnknown  Direction = "Unknown"
)

// OtherTrainObservation is another train seen at one of the tracked train's
// stations, placed at the station of its most recent realized event.
type OtherTrainObservation struct {
	TrainIdent       string `groups:"basic"`
	StationSignature string `groups:"basic"`

	ActivityType  AnnouncementActivityType `groups:"basic"`
	ScheduledTime *time.Time               `groups:"basic"`
	ActualTime    *time.Time               `groups:"basic"`
	Track         string                   `groups:"basic"`

	OriginSignature      string `groups:"basic"`
	DestinationSignature string `groups:"basic"`

	StationOrder []string `groups:"detailed"`

	Direction Direction `groups:"basic"`

	HasLivePosition bool `groups:"detailed"`
}

func (o *OtherTrainObservation) Delay() Delay {
	return DelayMinutes(o.ScheduledTime, o.ActualTime)
}

// StationTrains holds the other trains shown next to a single route station
type StationTrains struct {
	SameDirection     []*OtherTrainObservation `groups:"basic"`
	OppositeDirection []*OtherTrainObservation `groups:"basic"`
}

func (s *StationTrains) IsEmpty() bool {
	return len(s.SameDirection) == 0 && len(s.OppositeDirection) == 0
}

// All returns both buckets in one new slice, same direction first
func (s *StationTrains) All() []*OtherTrainObservation {
	all := make([]*OtherTrainObservation, 0, len(s.SameDirection)+len(s.OppositeDirection))
	all = append(all, s.SameDirection...)

	return append(all, s.OppositeDirection...)
}
