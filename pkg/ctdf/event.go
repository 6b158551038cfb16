package ctdf

import (
	"fmt"
	"time"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Body      interface{}
}

type EventType string

const (
	EventTypeTrainPositionChanged EventType = "TrainPositionChanged"
	EventTypeTrainNotFound        EventType = "TrainNotFound"
)

type TrainPositionChangedEvent struct {
	TrainIdent string
	RunDate    time.Time

	PreviousSignature string
	Signature         string

	BetweenStations bool
	Delay           Delay
}

type TrainNotFoundEvent struct {
	TrainIdent string
	RunDate    time.Time
}

func (e *Event) GetNotificationData() EventNotificationData {
	eventNotificationData := EventNotificationData{}

	eventBody, ok := e.Body.(map[string]interface{})
	if !ok {
		return eventNotificationData
	}

	switch e.Type {
	case EventTypeTrainPositionChanged:
		eventNotificationData.Title = fmt.Sprintf("Train %v", eventBody["TrainIdent"])

		if between, _ := eventBody["BetweenStations"].(bool); between {
			eventNotificationData.Message = fmt.Sprintf("Departed %v", eventBody["Signature"])
		} else {
			eventNotificationData.Message = fmt.Sprintf("At %v", eventBody["Signature"])
		}
	case EventTypeTrainNotFound:
		eventNotificationData.Title = fmt.Sprintf("Train %v", eventBody["TrainIdent"])
		eventNotificationData.Message = "No announcements for this run date"
	}

	return eventNotificationData
}

type EventNotificationData struct {
	Title   string
	Message string
}
