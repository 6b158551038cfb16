package trainroute

import (
	"errors"
	"sort"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/jinzhu/copier"
	"golang.org/x/exp/slices"
)

var ErrTrainNotFound = errors.New("train not found")

// Via stations share the time of the announced station they hang off, so
// they are ordered around it with synthetic offsets. Anything published as
// via-from sorts below the parent and via-to sorts above it.
const (
	viaFromSortOffset = -100000
	viaToSortOffset   = 100000
)

type routeEntry struct {
	node ctdf.RouteNode

	parentTime *time.Time
	parentRank int
	sortOffset int
}

// BuildRoute turns station aggregates into an ordered route that includes the
// unannounced via stations. An empty input yields ErrTrainNotFound.
func BuildRoute(aggregates *StationAggregates) (ctdf.Route, error) {
	route := ctdf.Route{CurrentIndex: -1}

	if aggregates == nil || aggregates.Len() == 0 {
		return route, ErrTrainNotFound
	}

	announced := aggregates.All()
	sort.SliceStable(announced, func(a, b int) bool {
		return timeBefore(announced[a].ScheduledTime(), announced[b].ScheduledTime())
	})

	announcedSignatures := map[string]bool{}
	for _, aggregate := range announced {
		announcedSignatures[aggregate.Signature] = true
	}

	var entries []routeEntry
	for rank, aggregate := range announced {
		parentTime := aggregate.ScheduledTime()

		for _, via := range sortedVias(aggregate.ViaFrom) {
			if announcedSignatures[via.Signature] {
				continue
			}

			entries = append(entries, routeEntry{
				node:       ctdf.RouteNode{Signature: via.Signature},
				parentTime: parentTime,
				parentRank: rank,
				sortOffset: viaFromSortOffset + via.Order,
			})
		}

		entries = append(entries, routeEntry{
			node:       announcedNode(aggregate),
			parentTime: parentTime,
			parentRank: rank,
		})

		for _, via := range sortedVias(aggregate.ViaTo) {
			if announcedSignatures[via.Signature] {
				continue
			}

			entries = append(entries, routeEntry{
				node:       ctdf.RouteNode{Signature: via.Signature},
				parentTime: parentTime,
				parentRank: rank,
				sortOffset: viaToSortOffset + via.Order,
			})
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if !timeEqual(entries[a].parentTime, entries[b].parentTime) {
			return timeBefore(entries[a].parentTime, entries[b].parentTime)
		}
		if entries[a].parentRank != entries[b].parentRank {
			return entries[a].parentRank < entries[b].parentRank
		}

		return entries[a].sortOffset < entries[b].sortOffset
	})

	placed := map[string]bool{}
	for _, entry := range entries {
		if placed[entry.node.Signature] {
			continue
		}
		placed[entry.node.Signature] = true

		route.Nodes = append(route.Nodes, entry.node)
	}

	return route, nil
}

func announcedNode(aggregate *StationAggregate) ctdf.RouteNode {
	var node ctdf.RouteNode
	copier.Copy(&node, aggregate)

	node.IsAnnounced = true
	node.ScheduledTime = aggregate.ScheduledTime()
	node.ActualTime = aggregate.ActualTime()
	node.Track = aggregate.DisplayTrack()

	return node
}

func sortedVias(vias []ctdf.ViaLocation) []ctdf.ViaLocation {
	sorted := slices.Clone(vias)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Order < sorted[b].Order
	})

	return sorted
}

// Missing times sort after every known time
func timeBefore(a *time.Time, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func timeEqual(a *time.Time, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}
