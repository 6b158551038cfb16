package trainroute

import "github.com/Cybercom1973/taglaget/pkg/ctdf"

// CompareDirectionByStationOrder decides whether two trains travel the same
// way by looking at the stations they share. Every consecutive pair of shared
// stations votes, walked once in each train's own order so the answer does
// not depend on which train is passed first. Fewer than two shared stations
// or a tied vote gives DirectionUnknown.
func CompareDirectionByStationOrder(primary []string, other []string) ctdf.Direction {
	primaryIndex := firstIndexes(primary)
	otherIndex := firstIndexes(other)

	sharedInPrimaryOrder := sharedStations(primary, otherIndex)
	if len(sharedInPrimaryOrder) < 2 {
		return ctdf.DirectionUnknown
	}
	sharedInOtherOrder := sharedStations(other, primaryIndex)

	votes := pairVotes(sharedInPrimaryOrder, otherIndex) + pairVotes(sharedInOtherOrder, primaryIndex)

	switch {
	case votes > 0:
		return ctdf.DirectionSame
	case votes < 0:
		return ctdf.DirectionOpposite
	default:
		return ctdf.DirectionUnknown
	}
}

// pairVotes walks consecutive stations of ordered and checks whether the same
// pair keeps its order in the reference sequence. Returns preserved minus
// inverted.
func pairVotes(ordered []string, reference map[string]int) int {
	votes := 0
	for i := 1; i < len(ordered); i++ {
		if reference[ordered[i-1]] < reference[ordered[i]] {
			votes++
		} else {
			votes--
		}
	}

	return votes
}

func sharedStations(sequence []string, other map[string]int) []string {
	seen := map[string]bool{}
	var shared []string

	for _, signature := range sequence {
		if _, exists := other[signature]; !exists || seen[signature] {
			continue
		}
		seen[signature] = true
		shared = append(shared, signature)
	}

	return shared
}

func firstIndexes(sequence []string) map[string]int {
	indexes := map[string]int{}
	for i, signature := range sequence {
		if _, exists := indexes[signature]; !exists {
			indexes[signature] = i
		}
	}

	return indexes
}
