package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/elastic_client"
	"github.com/Cybercom1973/taglaget/pkg/realtime/railutils"
	"github.com/adjust/rmq/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventSink publishes an event onto the events queue whenever the train
// changes position or disappears.
type EventSink struct {
	Queue rmq.Queue
}

func (e *EventSink) Publish(_ context.Context, cycle Cycle) error {
	event := PositionEvent(cycle.Previous, cycle.Current)
	if event == nil {
		return nil
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return e.Queue.PublishBytes(eventBytes)
}

// PositionEvent compares two consecutive snapshots and returns the event to
// announce, or nil when nothing worth announcing happened.
func PositionEvent(previous *ctdf.TrainSnapshot, current *ctdf.TrainSnapshot) *ctdf.Event {
	if current == nil {
		return nil
	}

	if current.Status == ctdf.TrainSnapshotStatusNotFound {
		if previous != nil && previous.Status == ctdf.TrainSnapshotStatusNotFound {
			return nil
		}

		return &ctdf.Event{
			Type:      ctdf.EventTypeTrainNotFound,
			Timestamp: current.ModificationDateTime,
			Body: ctdf.TrainNotFoundEvent{
				TrainIdent: current.TrainIdent,
				RunDate:    current.RunDate,
			},
		}
	}

	currentNode := current.Route.CurrentNode()
	if currentNode == nil {
		return nil
	}

	previousSignature := ""
	previousBetween := false
	if previous != nil {
		previousSignature = previous.CurrentSignature()
		if previousNode := previous.Route.CurrentNode(); previousNode != nil {
			previousBetween = previousNode.TrainBetweenHereAndNext
		}
	}

	if previousSignature == currentNode.Signature && previousBetween == currentNode.TrainBetweenHereAndNext {
		return nil
	}

	return &ctdf.Event{
		Type:      ctdf.EventTypeTrainPositionChanged,
		Timestamp: current.ModificationDateTime,
		Body: ctdf.TrainPositionChangedEvent{
			TrainIdent:        current.TrainIdent,
			RunDate:           current.RunDate,
			PreviousSignature: previousSignature,
			Signature:         currentNode.Signature,
			BetweenStations:   currentNode.TrainBetweenHereAndNext,
			Delay:             currentNode.Delay(),
		},
	}
}

// ArchiveSink upserts every snapshot into the realtime trains collection
// through a batch queue. Only the most recently built snapshot of a train
// survives a batch, as the bulk write is unordered.
type ArchiveSink struct {
	Queue *railutils.BatchProcessingQueue
}

func (a *ArchiveSink) Publish(_ context.Context, cycle Cycle) error {
	writeModel := mongo.NewReplaceOneModel().
		SetFilter(bson.M{"primaryidentifier": cycle.Current.PrimaryIdentifier}).
		SetReplacement(cycle.Current).
		SetUpsert(true)

	a.Queue.AddKeyed(cycle.Current.PrimaryIdentifier, cycle.Current.ModificationDateTime.UnixNano(), writeModel)

	return nil
}

type CycleStatsDocument struct {
	Timestamp time.Time

	TrainIdent string
	RunDate    string
	Generation uint64
	Status     ctdf.TrainSnapshotStatus

	DurationMilliseconds int64

	RouteNodes     int
	AnnouncedNodes int
	Current        string
	Between        bool
	DelayMinutes   int
	DelayKnown     bool

	SameDirectionTrains     int
	OppositeDirectionTrains int
	HasPosition             bool

	Warnings []string
}

// StatsSink indexes one document per refresh cycle into Elasticsearch
type StatsSink struct {
	IndexPrefix string
}

func (s *StatsSink) Publish(_ context.Context, cycle Cycle) error {
	document := CycleStats(cycle)

	documentBytes, err := json.Marshal(document)
	if err != nil {
		return err
	}

	prefix := s.IndexPrefix
	if prefix == "" {
		prefix = "taglaget-refresh-cycle"
	}

	elastic_client.IndexRequest(elastic_client.MonthlyIndex(prefix, document.Timestamp), bytes.NewReader(documentBytes))

	return nil
}

func CycleStats(cycle Cycle) CycleStatsDocument {
	current := cycle.Current

	document := CycleStatsDocument{
		Timestamp:            current.ModificationDateTime,
		TrainIdent:           current.TrainIdent,
		RunDate:              current.RunDate.Format(time.DateOnly),
		Generation:           current.Generation,
		Status:               current.Status,
		DurationMilliseconds: cycle.Duration.Milliseconds(),
		RouteNodes:           len(current.Route.Nodes),
		AnnouncedNodes:       len(current.Route.AnnouncedSignatures()),
		HasPosition:          current.Position != nil,
		Warnings:             current.Warnings,
	}

	if node := current.Route.CurrentNode(); node != nil {
		delay := node.Delay()

		document.Current = node.Signature
		document.Between = node.TrainBetweenHereAndNext
		document.DelayMinutes = delay.Minutes
		document.DelayKnown = delay.Known
	}

	for _, trains := range current.StationTrains {
		document.SameDirectionTrains += len(trains.SameDirection)
		document.OppositeDirectionTrains += len(trains.OppositeDirection)
	}

	return document
}
