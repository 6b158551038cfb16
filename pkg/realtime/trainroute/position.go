package trainroute

import (
	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// ResolvePosition works out where the train is on the route. It returns a
// copy of the route with the position flags set and the index of the current
// node, or -1 when the train has not been seen at any station yet.
func ResolvePosition(route ctdf.Route) (ctdf.Route, int) {
	resolved := ctdf.Route{
		Nodes:        slices.Clone(route.Nodes),
		CurrentIndex: -1,
	}
	for i := range resolved.Nodes {
		resolved.Nodes[i].IsCurrent = false
		resolved.Nodes[i].InTransitZone = false
		resolved.Nodes[i].TrainBetweenHereAndNext = false
	}

	currentIndex := -1
	for i, node := range resolved.Nodes {
		if node.IsAnnounced && (node.Arrived || node.Departed) {
			currentIndex = i
		}
	}

	if currentIndex == -1 {
		return resolved, -1
	}

	current := &resolved.Nodes[currentIndex]
	if current.Departed && currentIndex < len(resolved.Nodes)-1 {
		current.TrainBetweenHereAndNext = true

		for i := currentIndex + 1; i < len(resolved.Nodes) && !resolved.Nodes[i].IsAnnounced; i++ {
			resolved.Nodes[i].InTransitZone = true
		}
	} else {
		current.IsCurrent = true
	}

	resolved.CurrentIndex = currentIndex

	return resolved, currentIndex
}
