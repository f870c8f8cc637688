package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

func TestBoardBounds(t *testing.T) {
	b := NewBoard(8, 6)

	tests := []struct {
		name string
		pos  types.Position
		in   bool
	}{
		{"origin", types.Position{Row: 0, Col: 0}, true},
		{"far corner", types.Position{Row: 7, Col: 5}, true},
		{"row overflow", types.Position{Row: 8, Col: 0}, false},
		{"col overflow", types.Position{Row: 0, Col: 6}, false},
		{"negative row", types.Position{Row: -1, Col: 0}, false},
		{"negative col", types.Position{Row: 0, Col: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, b.InBounds(tt.pos))
		})
	}
}

func TestPlaceServiceValidation(t *testing.T) {
	g := newTestGame(1, 2)

	_, err := g.PlaceService(types.ServiceCache, types.Position{Row: 20, Col: 0}, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	// (1,1) holds player 0's starting load balancer.
	_, err = g.PlaceService(types.ServiceCache, types.Position{Row: 1, Col: 1}, 0)
	assert.ErrorIs(t, err, ErrPositionOccupied)

	_, err = g.PlaceService(types.ServiceCache, types.Position{Row: 0, Col: 0}, 5)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPlaceServiceAssignsSequentialIDs(t *testing.T) {
	g := newTestGame(1, 2)

	a, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 4, Col: 2}, 0)
	require.NoError(t, err)
	b, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 5, Col: 2}, 0)
	require.NoError(t, err)

	assert.Equal(t, a.ID+1, b.ID)
	assert.True(t, g.Players[0].Owns(a.ID))
	assert.True(t, g.Players[0].Owns(b.ID))

	id, ok := g.Board.ServiceAt(types.Position{Row: 4, Col: 2})
	require.True(t, ok)
	assert.Equal(t, a.ID, id)
}

func TestAutoConnectOddRow(t *testing.T) {
	g := newTestGame(1, 2)

	// (1,1) holds the starting load balancer; (0,1) is one of its odd-row
	// neighbors.
	svc, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
	require.NoError(t, err)

	lbID, ok := g.Board.ServiceAt(types.Position{Row: 1, Col: 1})
	require.True(t, ok)

	assert.True(t, svc.Connected(lbID))
	assert.True(t, g.Services[lbID].Connected(svc.ID), "connections are bidirectional")
}

func TestAutoConnectEvenRow(t *testing.T) {
	g := newTestGame(1, 2)

	// Even-row neighbors of (2,2) include (1,1) and (1,2) but not (1,3).
	svc, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 2, Col: 2}, 0)
	require.NoError(t, err)

	lbID, ok := g.Board.ServiceAt(types.Position{Row: 1, Col: 1})
	require.True(t, ok)
	assert.True(t, svc.Connected(lbID))

	far, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 1, Col: 3}, 0)
	require.NoError(t, err)
	assert.False(t, svc.Connected(far.ID))
}

func TestHexNeighborsParity(t *testing.T) {
	even := hexNeighbors(types.Position{Row: 2, Col: 2})
	assert.ElementsMatch(t, []types.Position{
		{Row: 1, Col: 1}, {Row: 1, Col: 2},
		{Row: 2, Col: 1}, {Row: 2, Col: 3},
		{Row: 3, Col: 1}, {Row: 3, Col: 2},
	}, even)

	odd := hexNeighbors(types.Position{Row: 3, Col: 2})
	assert.ElementsMatch(t, []types.Position{
		{Row: 2, Col: 2}, {Row: 2, Col: 3},
		{Row: 3, Col: 1}, {Row: 3, Col: 3},
		{Row: 4, Col: 2}, {Row: 4, Col: 3},
	}, odd)
}

func TestNoConnectionAcrossNonAdjacentCells(t *testing.T) {
	g := newTestGame(1, 2)

	svc, err := g.PlaceService(types.ServiceDatabase, types.Position{Row: 5, Col: 5}, 1)
	require.NoError(t, err)
	assert.Empty(t, svc.ConnectionIDs())
}
