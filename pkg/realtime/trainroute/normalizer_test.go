package trainroute

import (
	"testing"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGroupsBySignature(t *testing.T) {
	aggregates := Normalize([]*ctdf.Announcement{
		departure("1", "Cst", clock(10, 0), clockPointer(10, 1)),
		arrival("1", "Söc", clock(10, 20), nil),
		departure("1", "Söc", clock(10, 22), nil),
		arrival("1", "Nk", clock(10, 50), nil),
	})

	require.Equal(t, 3, aggregates.Len())

	var order []string
	for _, aggregate := range aggregates.All() {
		order = append(order, aggregate.Signature)
	}
	assert.Equal(t, []string{"Cst", "Söc", "Nk"}, order)

	soc := aggregates.Get("Söc")
	require.NotNil(t, soc)
	assert.Equal(t, clock(10, 20), *soc.ScheduledArrival)
	assert.Equal(t, clock(10, 22), *soc.ScheduledDeparture)
	assert.Equal(t, clock(10, 20), *soc.ScheduledTime())
	assert.False(t, soc.Arrived)
	assert.False(t, soc.Departed)
}

func TestNormalizeActivitySpecificUpdates(t *testing.T) {
	t.Run("departure does not touch arrival facts", func(t *testing.T) {
		arrivalEvent := arrival("1", "A", clock(10, 0), clockPointer(10, 2))
		arrivalEvent.Track = "3"
		departureEvent := departure("1", "A", clock(10, 5), nil)
		departureEvent.Track = "4"

		aggregate := Normalize([]*ctdf.Announcement{arrivalEvent, departureEvent}).Get("A")

		assert.True(t, aggregate.Arrived)
		assert.False(t, aggregate.Departed)
		assert.Equal(t, clock(10, 2), *aggregate.ActualArrival)
		assert.Nil(t, aggregate.ActualDeparture)
		assert.Equal(t, "4", aggregate.Track)
		assert.Equal(t, "4", aggregate.DisplayTrack())
	})

	t.Run("arrival does not set departure track", func(t *testing.T) {
		arrivalEvent := arrival("1", "B", clock(11, 0), nil)
		arrivalEvent.Track = "2"

		aggregate := Normalize([]*ctdf.Announcement{arrivalEvent}).Get("B")

		assert.Empty(t, aggregate.Track)
		assert.Equal(t, "2", aggregate.DisplayTrack())
	})

	t.Run("unrealized event does not undo a realized one", func(t *testing.T) {
		aggregate := Normalize([]*ctdf.Announcement{
			departure("1", "C", clock(12, 0), clockPointer(12, 3)),
			departure("1", "C", clock(12, 0), nil),
		}).Get("C")

		assert.True(t, aggregate.Departed)
		assert.Equal(t, clock(12, 3), *aggregate.ActualDeparture)
	})

	t.Run("future station is kept", func(t *testing.T) {
		aggregate := Normalize([]*ctdf.Announcement{
			arrival("1", "D", clock(13, 0), nil),
		}).Get("D")

		require.NotNil(t, aggregate)
		assert.False(t, aggregate.Arrived)
		assert.False(t, aggregate.Departed)
		assert.Nil(t, aggregate.ActualTime())
	})
}

func TestNormalizeUnionsViaHints(t *testing.T) {
	arrivalEvent := arrival("1", "A", clock(10, 0), nil)
	arrivalEvent.ViaFromLocations = vias("X", "Y")
	arrivalEvent.ViaToLocations = vias("P")

	departureEvent := departure("1", "A", clock(10, 2), nil)
	departureEvent.ViaFromLocations = vias("Y", "Z")
	departureEvent.ViaToLocations = vias("P", "Q")

	aggregate := Normalize([]*ctdf.Announcement{arrivalEvent, departureEvent}).Get("A")

	var viaFrom []string
	for _, via := range aggregate.ViaFrom {
		viaFrom = append(viaFrom, via.Signature)
	}
	var viaTo []string
	for _, via := range aggregate.ViaTo {
		viaTo = append(viaTo, via.Signature)
	}

	assert.Equal(t, []string{"X", "Y", "Z"}, viaFrom)
	assert.Equal(t, []string{"P", "Q"}, viaTo)
}

func TestNormalizeSkipsBlankSignatures(t *testing.T) {
	aggregates := Normalize([]*ctdf.Announcement{
		nil,
		arrival("1", "", clock(10, 0), nil),
		arrival("1", "A", clock(10, 0), nil),
	})

	assert.Equal(t, 1, aggregates.Len())
}
