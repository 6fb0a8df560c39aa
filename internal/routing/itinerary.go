package routing

// Segment is one bus ride: board Route at From, get off at To.
type Segment struct {
	From  Stop
	To    Stop
	Route string
}

// BuildItinerary collapses a path into rides. A new segment starts whenever
// the route changes, at the stop where the previous ride ended, so adjacent
// segments never share a route.
func BuildItinerary(g *Graph, path Path) []Segment {
	segments := []Segment{}
	if len(path) == 0 {
		return segments
	}

	segStart := path[0].StopID
	segRoute := path[0].Route
	prevStop := path[0].StopID

	for _, st := range path[1:] {
		if st.Route != segRoute {
			segments = append(segments, g.segment(segStart, prevStop, segRoute))
			segStart = prevStop
			segRoute = st.Route
		}
		prevStop = st.StopID
	}

	return append(segments, g.segment(segStart, prevStop, segRoute))
}

func (g *Graph) segment(from, to int, route string) Segment {
	f, _ := g.StopByID(from)
	t, _ := g.StopByID(to)
	return Segment{From: f, To: t, Route: route}
}
