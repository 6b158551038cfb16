package trainroute

import (
	"testing"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePositionDepartedBeforeAnnouncedStation(t *testing.T) {
	route := mustBuild(
		departure("1", "A", clock(10, 0), clockPointer(10, 0)),
		arrival("1", "B", clock(10, 30), nil),
	)

	resolved, currentIndex := ResolvePosition(route)

	require.Equal(t, []string{"A", "B"}, resolved.Signatures())
	assert.Equal(t, 0, currentIndex)
	assert.Equal(t, 0, resolved.CurrentIndex)

	assert.True(t, resolved.Nodes[0].Departed)
	assert.True(t, resolved.Nodes[0].TrainBetweenHereAndNext)
	assert.False(t, resolved.Nodes[0].IsCurrent)

	assert.False(t, resolved.Nodes[1].Arrived)
	assert.False(t, resolved.Nodes[1].InTransitZone)
	assert.False(t, resolved.Nodes[1].IsCurrent)
}

func TestResolvePositionTransitZone(t *testing.T) {
	a := departure("1", "A", clock(10, 0), clockPointer(10, 1))
	a.ViaToLocations = vias("v1", "v2")
	b := arrival("1", "B", clock(10, 30), nil)
	b.ViaToLocations = vias("w1")
	c := arrival("1", "C", clock(11, 0), nil)

	resolved, currentIndex := ResolvePosition(mustBuild(a, b, c))

	require.Equal(t, []string{"A", "v1", "v2", "B", "w1", "C"}, resolved.Signatures())
	assert.Equal(t, 0, currentIndex)

	var inTransit []string
	for _, node := range resolved.Nodes {
		if node.InTransitZone {
			inTransit = append(inTransit, node.Signature)
		}
	}
	assert.Equal(t, []string{"v1", "v2"}, inTransit)
}

func TestResolvePositionAtStation(t *testing.T) {
	tests := []struct {
		name          string
		announcements []*ctdf.Announcement
		expectedIndex int
	}{
		{
			name: "arrived not departed",
			announcements: []*ctdf.Announcement{
				departure("1", "A", clock(10, 0), clockPointer(10, 0)),
				arrival("1", "B", clock(10, 30), clockPointer(10, 31)),
				departure("1", "B", clock(10, 32), nil),
				arrival("1", "C", clock(11, 0), nil),
			},
			expectedIndex: 1,
		},
		{
			name: "departed the final node",
			announcements: []*ctdf.Announcement{
				departure("1", "A", clock(10, 0), clockPointer(10, 0)),
				departure("1", "B", clock(10, 30), clockPointer(10, 30)),
			},
			expectedIndex: 1,
		},
		{
			name: "arrived at destination",
			announcements: []*ctdf.Announcement{
				departure("1", "A", clock(10, 0), clockPointer(10, 0)),
				arrival("1", "B", clock(10, 30), clockPointer(10, 29)),
			},
			expectedIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, currentIndex := ResolvePosition(mustBuild(tt.announcements...))

			assert.Equal(t, tt.expectedIndex, currentIndex)
			assert.True(t, resolved.Nodes[currentIndex].IsCurrent)
			assert.False(t, resolved.Nodes[currentIndex].TrainBetweenHereAndNext)

			for i, node := range resolved.Nodes {
				if i != currentIndex {
					assert.False(t, node.IsCurrent)
				}
				assert.False(t, node.InTransitZone)
			}
		})
	}
}

func TestResolvePositionNotStarted(t *testing.T) {
	route := mustBuild(
		departure("1", "A", clock(10, 0), nil),
		arrival("1", "B", clock(10, 30), nil),
	)

	resolved, currentIndex := ResolvePosition(route)

	assert.Equal(t, -1, currentIndex)
	assert.Nil(t, resolved.CurrentNode())
	for _, node := range resolved.Nodes {
		assert.False(t, node.IsCurrent)
		assert.False(t, node.InTransitZone)
		assert.False(t, node.TrainBetweenHereAndNext)
	}
}

func TestResolvePositionUsesLatestTouchedStation(t *testing.T) {
	// B has no realized events but C does, so the train is past B
	route := mustBuild(
		departure("1", "A", clock(10, 0), clockPointer(10, 0)),
		arrival("1", "B", clock(10, 30), nil),
		arrival("1", "C", clock(11, 0), clockPointer(11, 2)),
		departure("1", "C", clock(11, 5), nil),
	)

	resolved, currentIndex := ResolvePosition(route)

	assert.Equal(t, 2, currentIndex)
	assert.True(t, resolved.Nodes[2].IsCurrent)
	assert.False(t, resolved.Nodes[0].TrainBetweenHereAndNext)
}

func TestResolvePositionDoesNotModifyInput(t *testing.T) {
	route := mustBuild(
		departure("1", "A", clock(10, 0), clockPointer(10, 0)),
		arrival("1", "B", clock(10, 30), nil),
	)

	ResolvePosition(route)

	assert.False(t, route.Nodes[0].TrainBetweenHereAndNext)
	assert.Equal(t, -1, route.CurrentIndex)
}

func TestResolvePositionSingleCurrentInvariant(t *testing.T) {
	a := departure("1", "A", clock(10, 0), clockPointer(10, 0))
	a.ViaToLocations = vias("v1")
	b := arrival("1", "B", clock(10, 30), clockPointer(10, 30))
	bDeparture := departure("1", "B", clock(10, 31), clockPointer(10, 32))
	bDeparture.ViaToLocations = vias("w1", "w2")
	c := arrival("1", "C", clock(11, 0), nil)
	c.ViaToLocations = vias("x1")
	d := arrival("1", "D", clock(11, 30), nil)

	resolved, currentIndex := ResolvePosition(mustBuild(a, b, bDeparture, c, d))

	currentCount := 0
	betweenIndex := -1
	for i, node := range resolved.Nodes {
		if node.IsCurrent {
			currentCount++
		}
		if node.TrainBetweenHereAndNext {
			betweenIndex = i
		}
	}

	assert.LessOrEqual(t, currentCount, 1)
	require.Equal(t, currentIndex, betweenIndex)

	for i, node := range resolved.Nodes {
		if !node.InTransitZone {
			continue
		}

		assert.Greater(t, i, betweenIndex)
		assert.False(t, node.IsAnnounced)
		for j := betweenIndex + 1; j < i; j++ {
			assert.False(t, resolved.Nodes[j].IsAnnounced)
		}
	}
}
