package ctdf

import "time"

// RouteNode is one station on a reconstructed train route. Unannounced nodes
// come from via hints and carry no times or track.
type RouteNode struct {
	Signature   string `groups:"basic"`
	IsAnnounced bool   `groups:"basic"`

	ScheduledTime *time.Time `groups:"basic"`
	ActualTime    *time.Time `groups:"basic"`

	ScheduledArrival   *time.Time `groups:"detailed"`
	ScheduledDeparture *time.Time `groups:"detailed"`
	EstimatedArrival   *time.Time `groups:"detailed"`
	EstimatedDeparture *time.Time `groups:"detailed"`
	ActualArrival      *time.Time `groups:"detailed"`
	ActualDeparture    *time.Time `groups:"detailed"`

	Track    string `groups:"basic"`
	Canceled bool   `groups:"basic"`

	Arrived  bool `groups:"basic"`
	Departed bool `groups:"basic"`

	IsCurrent               bool `groups:"basic"`
	InTransitZone           bool `groups:"basic"`
	TrainBetweenHereAndNext bool `groups:"basic"`
}

// Delay returns the most relevant delay for the node, preferring departure
// over arrival once the train has left.
func (n *RouteNode) Delay() Delay {
	if n.Departed {
		if delay := DelayMinutes(n.ScheduledDeparture, n.ActualDeparture); delay.Known {
			return delay
		}
	}

	if delay := DelayMinutes(n.ScheduledArrival, n.ActualArrival); delay.Known {
		return delay
	}

	return DelayMinutes(n.ScheduledDeparture, n.ActualDeparture)
}

type Route struct {
	Nodes        []RouteNode `groups:"basic"`
	CurrentIndex int         `groups:"basic"`
}

func (r *Route) IsEmpty() bool {
	return len(r.Nodes) == 0
}

// Signatures returns the station signatures in route order
func (r *Route) Signatures() []string {
	signatures := make([]string, 0, len(r.Nodes))
	for _, node := range r.Nodes {
		signatures = append(signatures, node.Signature)
	}

	return signatures
}

func (r *Route) IndexOf(signature string) int {
	for i := range r.Nodes {
		if r.Nodes[i].Signature == signature {
			return i
		}
	}

	return -1
}

func (r *Route) AnnouncedSignatures() []string {
	var signatures []string
	for _, node := range r.Nodes {
		if node.IsAnnounced {
			signatures = append(signatures, node.Signature)
		}
	}

	return signatures
}

func (r *Route) CurrentNode() *RouteNode {
	if r.CurrentIndex < 0 || r.CurrentIndex >= len(r.Nodes) {
		return nil
	}

	return &r.Nodes[r.CurrentIndex]
}

// NextAnnouncedNode returns the first announced node after the current
// position, or nil when there is none.
func (r *Route) NextAnnouncedNode() *RouteNode {
	for i := r.CurrentIndex + 1; i < len(r.Nodes); i++ {
		if i >= 0 && r.Nodes[i].IsAnnounced {
			return &r.Nodes[i]
		}
	}

	return nil
}
