package routing

import (
	"container/heap"
	"context"
	"fmt"
)

// DefaultBusChangePenalty is added to the edge cost whenever the route
// changes. It dwarfs typical intra-city distances in km, so fewer changes
// always win over shorter rides.
const DefaultBusChangePenalty = 100.0

const (
	staleTolerance      = 1e-9
	cancelCheckInterval = 256
)

// State is a position in the search: standing at StopID, riding Route.
type State struct {
	StopID int
	Route  string
}

// Path is a sequence of states from start to destination.
type Path []State

// SearchOptions tunes a single search.
type SearchOptions struct {
	// BusChangePenalty <= 0 selects DefaultBusChangePenalty.
	BusChangePenalty float64
	// MaxExpansions caps popped states; 0 means unlimited.
	MaxExpansions int
}

func (o SearchOptions) penalty() float64 {
	if o.BusChangePenalty <= 0 {
		return DefaultBusChangePenalty
	}
	return o.BusChangePenalty
}

// SearchStats reports how much work a search did.
type SearchStats struct {
	Expanded int
	Pushed   int
}

// Search runs A* over (stop, route) states from start to end. Edge cost is
// the great-circle distance plus the bus change penalty when the route
// differs; the heuristic is the distance to end.
func Search(ctx context.Context, g *Graph, start, end int, opts SearchOptions) (Path, SearchStats, error) {
	var stats SearchStats

	if start == end {
		return Path{}, stats, nil
	}

	startRoutes := g.stopRouteList[start]
	if len(startRoutes) == 0 {
		return nil, stats, fmt.Errorf("%w: stop %d has no routes", ErrNoPath, start)
	}
	endStop, ok := g.stopsByID[end]
	if !ok {
		return nil, stats, fmt.Errorf("%w: unknown destination stop %d", ErrNoPath, end)
	}

	penalty := opts.penalty()
	h := func(stopID int) float64 {
		return stopDistance(g.stopsByID[stopID], endStop)
	}

	bestCost := make(map[State]float64)
	cameFrom := make(map[State]State)
	pq := &frontier{}
	heap.Init(pq)

	push := func(s State, cost float64) {
		heap.Push(pq, &frontierItem{state: s, priority: cost + h(s.StopID), seq: stats.Pushed})
		stats.Pushed++
	}

	for _, r := range startRoutes {
		s := State{StopID: start, Route: r}
		bestCost[s] = 0
		push(s, 0)
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		current := item.state

		if bestCost[current]+h(current.StopID) < item.priority-staleTolerance {
			continue
		}

		stats.Expanded++
		if opts.MaxExpansions > 0 && stats.Expanded > opts.MaxExpansions {
			return nil, stats, fmt.Errorf("%w: exceeded %d expansions", ErrSearchAborted, opts.MaxExpansions)
		}
		if stats.Expanded%cancelCheckInterval == 1 {
			if err := ctx.Err(); err != nil {
				return nil, stats, fmt.Errorf("%w: %w", ErrSearchAborted, err)
			}
		}

		if current.StopID == end {
			return reconstructPath(cameFrom, current), stats, nil
		}

		g0 := bestCost[current]
		for _, route := range g.stopRouteList[current.StopID] {
			step := 0.0
			if route != current.Route {
				step = penalty
			}
			for _, other := range g.routeStopList[route] {
				if other == current.StopID {
					continue
				}
				next := State{StopID: other, Route: route}
				tentative := g0 + g.distance(current.StopID, other) + step
				if old, seen := bestCost[next]; !seen || tentative < old {
					bestCost[next] = tentative
					cameFrom[next] = current
					push(next, tentative)
				}
			}
		}
	}

	return nil, stats, fmt.Errorf("%w: from stop %d to stop %d", ErrNoPath, start, end)
}

func reconstructPath(cameFrom map[State]State, current State) Path {
	path := Path{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type frontierItem struct {
	state    State
	priority float64
	seq      int
}

// frontier is a min-heap on priority; equal priorities pop in push order.
type frontier []*frontierItem

func (pq frontier) Len() int { return len(pq) }
func (pq frontier) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}
func (pq frontier) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *frontier) Push(x interface{}) {
	*pq = append(*pq, x.(*frontierItem))
}

func (pq *frontier) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
