package engine

import (
	"errors"

	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// ErrOutOfBounds indicates a position outside the configured grid.
var ErrOutOfBounds = errors.New("position out of board bounds")

// ErrPositionOccupied indicates the cell already holds a service.
var ErrPositionOccupied = errors.New("position already occupied")

// ErrUnknownPlayer indicates an owner id with no matching player.
var ErrUnknownPlayer = errors.New("unknown player")

// Board is a fixed rows x cols hex grid mapping occupied cells to service
// ids. A cell holds at most one service; bounds never change.
type Board struct {
	Rows int
	Cols int
	Grid map[types.Position]int
}

// NewBoard creates an empty board.
func NewBoard(rows, cols int) *Board {
	return &Board{
		Rows: rows,
		Cols: cols,
		Grid: make(map[types.Position]int),
	}
}

// InBounds reports whether pos lies on the grid.
func (b *Board) InBounds(pos types.Position) bool {
	return pos.Row >= 0 && pos.Row < b.Rows && pos.Col >= 0 && pos.Col < b.Cols
}

// Occupied reports whether pos holds a service.
func (b *Board) Occupied(pos types.Position) bool {
	_, ok := b.Grid[pos]
	return ok
}

// ServiceAt returns the service id at pos, if any.
func (b *Board) ServiceAt(pos types.Position) (int, bool) {
	id, ok := b.Grid[pos]
	return id, ok
}

// hexNeighbors returns the six odd-r offset neighbors of pos, including
// cells that fall off the board (callers bounds-check via occupancy).
func hexNeighbors(pos types.Position) []types.Position {
	row, col := pos.Row, pos.Col
	if row%2 == 0 {
		return []types.Position{
			{Row: row - 1, Col: col - 1}, {Row: row - 1, Col: col},
			{Row: row, Col: col - 1}, {Row: row, Col: col + 1},
			{Row: row + 1, Col: col - 1}, {Row: row + 1, Col: col},
		}
	}
	return []types.Position{
		{Row: row - 1, Col: col}, {Row: row - 1, Col: col + 1},
		{Row: row, Col: col - 1}, {Row: row, Col: col + 1},
		{Row: row + 1, Col: col}, {Row: row + 1, Col: col + 1},
	}
}

// PlaceService allocates a new service of the given kind at pos, owned by
// owner, and auto-connects it to every occupied hex neighbor. This is the
// only place new connectivity edges are created.
func (g *Game) PlaceService(kind types.ServiceKind, pos types.Position, owner int) (*types.Service, error) {
	if !g.Board.InBounds(pos) {
		return nil, ErrOutOfBounds
	}
	if g.Board.Occupied(pos) {
		return nil, ErrPositionOccupied
	}
	if owner < 0 || owner >= len(g.Players) {
		return nil, ErrUnknownPlayer
	}

	svc := &types.Service{
		ID:          g.nextServiceID,
		Kind:        kind,
		Position:    pos,
		State:       types.StateHealthy,
		Connections: make(map[int]struct{}),
		Owner:       owner,
	}
	g.nextServiceID++

	g.Services[svc.ID] = svc
	g.Board.Grid[pos] = svc.ID
	g.Players[owner].ServicesOwned[svc.ID] = struct{}{}

	g.autoConnect(svc)
	return svc, nil
}

// autoConnect links svc bidirectionally to each occupied neighboring cell.
func (g *Game) autoConnect(svc *types.Service) {
	for _, neighborPos := range hexNeighbors(svc.Position) {
		neighborID, ok := g.Board.ServiceAt(neighborPos)
		if !ok {
			continue
		}
		svc.Connect(neighborID)
		g.Services[neighborID].Connect(svc.ID)
	}
}
