package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildItinerary(t *testing.T) {
	g := mustGraph(t, campecheStops())

	tests := []struct {
		name string
		path Path
		want [][3]any // from, to, route
	}{
		{
			name: "empty path",
			path: Path{},
			want: [][3]any{},
		},
		{
			name: "single ride",
			path: Path{{1, "1"}, {2, "1"}, {9, "1"}},
			want: [][3]any{{1, 9, "1"}},
		},
		{
			name: "one change",
			path: Path{{3, "3"}, {1, "3"}, {2, "1"}},
			want: [][3]any{{3, 1, "3"}, {1, 2, "1"}},
		},
		{
			name: "many changes",
			path: Path{{10, "Lerma"}, {3, "Lerma"}, {1, "3"}, {2, "1"}, {4, "2"}, {11, "4"}, {12, "6"}},
			want: [][3]any{
				{10, 3, "Lerma"}, {3, 1, "3"}, {1, 2, "1"}, {2, 4, "2"}, {4, 11, "4"}, {11, 12, "6"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := BuildItinerary(g, tt.path)
			require.Len(t, segments, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w[0], segments[i].From.ID, "segment %d from", i)
				assert.Equal(t, w[1], segments[i].To.ID, "segment %d to", i)
				assert.Equal(t, w[2], segments[i].Route, "segment %d route", i)
			}
		})
	}
}

func TestBuildItineraryAdjacentSegmentsDiffer(t *testing.T) {
	g := mustGraph(t, campecheStops())

	for _, s := range g.Stops() {
		for _, e := range g.Stops() {
			path, _, err := Search(t.Context(), g, s.ID, e.ID, SearchOptions{})
			if err != nil {
				assert.ErrorIs(t, err, ErrNoPath)
				continue
			}
			segments := BuildItinerary(g, path)

			routes := map[string]struct{}{}
			for i, seg := range segments {
				routes[seg.Route] = struct{}{}
				if i > 0 {
					assert.NotEqual(t, segments[i-1].Route, seg.Route)
					assert.Equal(t, segments[i-1].To.ID, seg.From.ID)
				}
			}
			assert.Len(t, routes, len(segments), "%d→%d reuses a route", s.ID, e.ID)
		}
	}
}
