package ctdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayMinutes(t *testing.T) {
	at := func(hour, minute, second int) *time.Time {
		value := time.Date(2024, 1, 1, hour, minute, second, 0, time.UTC)
		return &value
	}

	tests := []struct {
		name      string
		scheduled *time.Time
		actual    *time.Time
		expected  Delay
		status    DelayStatus
	}{
		{
			name:      "five minutes late",
			scheduled: at(10, 0, 0),
			actual:    at(10, 5, 0),
			expected:  Delay{Minutes: 5, Known: true},
			status:    DelayStatusDelayed,
		},
		{
			name:      "two minutes early",
			scheduled: at(10, 0, 0),
			actual:    at(9, 58, 0),
			expected:  Delay{Minutes: -2, Known: true},
			status:    DelayStatusEarly,
		},
		{
			name:      "on time",
			scheduled: at(10, 0, 0),
			actual:    at(10, 0, 0),
			expected:  Delay{Minutes: 0, Known: true},
			status:    DelayStatusOnTime,
		},
		{
			name:      "rounds to nearest minute",
			scheduled: at(10, 0, 0),
			actual:    at(10, 1, 31),
			expected:  Delay{Minutes: 2, Known: true},
			status:    DelayStatusDelayed,
		},
		{
			name:      "rounds down under half a minute",
			scheduled: at(10, 0, 0),
			actual:    at(10, 0, 20),
			expected:  Delay{Minutes: 0, Known: true},
			status:    DelayStatusOnTime,
		},
		{
			name:      "missing actual",
			scheduled: at(10, 0, 0),
			actual:    nil,
			expected:  NoDelayInformation,
			status:    DelayStatusNoInformation,
		},
		{
			name:      "missing scheduled",
			scheduled: nil,
			actual:    at(10, 0, 0),
			expected:  NoDelayInformation,
			status:    DelayStatusNoInformation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay := DelayMinutes(tt.scheduled, tt.actual)

			assert.Equal(t, tt.expected, delay)
			assert.Equal(t, tt.status, delay.Status())
		})
	}
}

func TestRouteNodeDelayPrefersDeparture(t *testing.T) {
	scheduledArrival := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	actualArrival := scheduledArrival.Add(3 * time.Minute)
	scheduledDeparture := scheduledArrival.Add(2 * time.Minute)
	actualDeparture := scheduledDeparture.Add(4 * time.Minute)

	node := RouteNode{
		Signature:          "Cst",
		IsAnnounced:        true,
		ScheduledArrival:   &scheduledArrival,
		ActualArrival:      &actualArrival,
		ScheduledDeparture: &scheduledDeparture,
		Arrived:            true,
	}

	assert.Equal(t, Delay{Minutes: 3, Known: true}, node.Delay())

	node.ActualDeparture = &actualDeparture
	node.Departed = true

	assert.Equal(t, Delay{Minutes: 4, Known: true}, node.Delay())
}
