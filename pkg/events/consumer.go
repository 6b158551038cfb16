package events

import (
	"bytes"
	"encoding/json"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/Cybercom1973/taglaget/pkg/elastic_client"
	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const QueueName = redis_client.EventsQueue

// EventsBatchConsumer logs every train event taken off the events queue and
// hands it to Handler when one is set
type EventsBatchConsumer struct {
	Handler func(event *ctdf.Event, notification ctdf.EventNotificationData)
}

func NewEventsBatchConsumer() *EventsBatchConsumer {
	return &EventsBatchConsumer{
		Handler: indexEvent,
	}
}

func (c *EventsBatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var event ctdf.Event
		if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode event")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject event")
			}
			continue
		}

		notification := event.GetNotificationData()

		log.Info().
			Str("type", string(event.Type)).
			Time("timestamp", event.Timestamp).
			Str("title", notification.Title).
			Msg(notification.Message)

		if c.Handler != nil {
			c.Handler(&event, notification)
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack event")
		}
	}
}

func indexEvent(event *ctdf.Event, notification ctdf.EventNotificationData) {
	if !elastic_client.Enabled() {
		return
	}

	document, err := json.Marshal(struct {
		*ctdf.Event
		Title   string
		Message string
	}{
		Event:   event,
		Title:   notification.Title,
		Message: notification.Message,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event document")
		return
	}

	elastic_client.IndexRequest(elastic_client.MonthlyIndex("taglaget-events", event.Timestamp), bytes.NewReader(document))
}
