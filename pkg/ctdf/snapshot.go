package ctdf

import (
	"fmt"
	"time"
)

var TrainSnapshotIDFormat = "SE:TRAFIKVERKET:TRAIN:%s:%s"

type TrainSnapshotStatus string

const (
	TrainSnapshotStatusOK       TrainSnapshotStatus = "OK"
	TrainSnapshotStatusNotFound TrainSnapshotStatus = "NotFound"
)

// TrainSnapshot is the immutable result of one refresh cycle. It is replaced
// as a whole and never modified after publication.
type TrainSnapshot struct {
	PrimaryIdentifier string `groups:"basic"`
	CycleIdentifier   string `groups:"detailed"`

	TrainIdent string    `groups:"basic"`
	RunDate    time.Time `groups:"basic"`

	Status     TrainSnapshotStatus `groups:"basic"`
	Generation uint64              `groups:"detailed"`

	Route        Route             `groups:"basic"`
	StationNames map[string]string `groups:"basic"`

	StationTrains map[string]*StationTrains `groups:"basic"`

	// Delays has an entry for every route station with both a scheduled and an actual time
	Delays map[string]Delay `groups:"basic"`

	Position *TrainPosition `groups:"basic"`

	Warnings []string `groups:"detailed"`

	CreationDateTime     time.Time `groups:"detailed"`
	ModificationDateTime time.Time `groups:"detailed"`

	DataSource *DataSource `groups:"internal"`
}

func TrainSnapshotIdentifier(trainIdent string, runDate time.Time) string {
	return fmt.Sprintf(TrainSnapshotIDFormat, runDate.Format(time.DateOnly), trainIdent)
}

// StationName falls back to the signature when no display name is known
func (s *TrainSnapshot) StationName(signature string) string {
	if name, ok := s.StationNames[signature]; ok && name != "" {
		return name
	}

	return signature
}

func (s *TrainSnapshot) CurrentSignature() string {
	if node := s.Route.CurrentNode(); node != nil {
		return node.Signature
	}

	return ""
}

func RouteDelays(route Route) map[string]Delay {
	delays := map[string]Delay{}

	for i := range route.Nodes {
		if delay := route.Nodes[i].Delay(); delay.Known {
			delays[route.Nodes[i].Signature] = delay
		}
	}

	return delays
}
