package engine

import (
	"math/rand"
	"sort"
	"time"

	"github.com/jwalsh/pipeline-and-peril/pkg/dice"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// Winner sentinels returned by GetWinner.
const (
	// WinnerTeam indicates a cooperative game met its uptime target.
	WinnerTeam = -1
	// WinnerNone indicates no winner (cooperative target missed).
	WinnerNone = -2
)

// LogEntry is one append-only event log record. The log is descriptive:
// core logic never reads it back.
type LogEntry struct {
	Elapsed float64        `json:"timestamp"`
	Round   int            `json:"round"`
	Phase   types.Phase    `json:"phase"`
	Type    events.EventType `json:"type"`
	Data    map[string]any `json:"data"`
}

// Game is the authoritative state of one simulation instance. All mutation
// goes through its methods; no operation suspends and none are safe for
// concurrent use. Drivers serialize calls per instance (distinct instances
// are fully independent).
type Game struct {
	GameID  string
	Config  types.GameConfig
	Round   int
	Phase   types.Phase
	Entropy int

	Players  []*types.Player
	Services map[int]*types.Service
	Board    *Board

	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	UptimeHistory      []float64
	EventLog           []LogEntry

	// Dice is the single pseudorandom source shared by every subsystem.
	Dice *dice.Roller

	rng           *rand.Rand
	broker        *events.Broker
	nextServiceID int
	startedAt     time.Time
}

// Option configures a Game at construction time.
type Option func(*Game)

// WithBroker attaches an event broker; every logged event is also published
// to it for telemetry and streaming consumers.
func WithBroker(b *events.Broker) Option {
	return func(g *Game) { g.broker = b }
}

// WithGameID sets the identifier stamped on published events.
func WithGameID(id string) Option {
	return func(g *Game) { g.GameID = id }
}

// New creates a game with numPlayers players and places one starting load
// balancer per player at the four board corners, in player order. The seed
// fixes every die roll and probability check: identical seeds and identical
// driver-issued calls reproduce identical games.
func New(cfg types.GameConfig, numPlayers int, seed int64, opts ...Option) *Game {
	rng := rand.New(rand.NewSource(seed))

	g := &Game{
		Config:        cfg,
		Phase:         types.PhaseTraffic,
		Services:      make(map[int]*types.Service),
		Board:         NewBoard(cfg.BoardRows, cfg.BoardCols),
		Dice:          dice.NewRoller(rng),
		rng:           rng,
		nextServiceID: 1,
		startedAt:     time.Now(),
	}

	for i := 0; i < numPlayers; i++ {
		strategy := types.Strategies[i%len(types.Strategies)]
		g.Players = append(g.Players, types.NewPlayer(i, strategy))
	}

	for _, opt := range opts {
		opt(g)
	}

	g.placeStartingServices()
	g.logEvent(events.EventGameCreated, map[string]any{
		"players":    len(g.Players),
		"board_rows": cfg.BoardRows,
		"board_cols": cfg.BoardCols,
		"max_rounds": cfg.MaxRounds,
	})
	return g
}

// startingPositions returns the four fixed corner cells, inset one cell
// from each edge (on the default 8x6 board: (1,1), (1,4), (6,1), (6,4)).
func startingPositions(rows, cols int) []types.Position {
	return []types.Position{
		{Row: 1, Col: 1},
		{Row: 1, Col: cols - 2},
		{Row: rows - 2, Col: 1},
		{Row: rows - 2, Col: cols - 2},
	}
}

func (g *Game) placeStartingServices() {
	positions := startingPositions(g.Config.BoardRows, g.Config.BoardCols)
	for i, player := range g.Players {
		if i >= len(positions) {
			break
		}
		svc, err := g.PlaceService(types.ServiceLoadBalancer, positions[i], player.ID)
		if err != nil {
			continue
		}
		g.logEvent(events.EventServicePlaced, map[string]any{
			"player_id":    player.ID,
			"service_id":   svc.ID,
			"service_type": svc.Kind,
			"position":     svc.Position,
		})
	}
}

// Player returns the player with the given id.
func (g *Game) Player(id int) (*types.Player, bool) {
	if id < 0 || id >= len(g.Players) {
		return nil, false
	}
	return g.Players[id], true
}

// Service returns the service with the given id.
func (g *Game) Service(id int) (*types.Service, bool) {
	s, ok := g.Services[id]
	return s, ok
}

// CalculateUptime returns successful/total requests, or 1.0 before any
// traffic has been processed.
func (g *Game) CalculateUptime() float64 {
	if g.TotalRequests == 0 {
		return 1.0
	}
	return float64(g.SuccessfulRequests) / float64(g.TotalRequests)
}

// IsGameOver reports whether the game has reached a terminal condition:
// the round limit, a sustained cooperative uptime target (mean of the last
// three snapshots), or every player losing all services.
func (g *Game) IsGameOver() bool {
	if g.Round >= g.Config.MaxRounds {
		return true
	}

	if g.Config.CooperativeMode && len(g.UptimeHistory) >= 3 {
		recent := g.UptimeHistory[len(g.UptimeHistory)-3:]
		if mean(recent) >= g.Config.UptimeTarget {
			return true
		}
	}

	for _, p := range g.Players {
		if len(p.ServicesOwned) > 0 {
			return false
		}
	}
	return true
}

// GetWinner resolves the game outcome. Cooperative games return WinnerTeam
// when mean uptime across the whole history meets the target, WinnerNone
// otherwise. Competitive games return the id of the highest-scoring player;
// ties go to the first player encountered in seat order.
func (g *Game) GetWinner() int {
	if g.Config.CooperativeMode {
		if len(g.UptimeHistory) > 0 && mean(g.UptimeHistory) >= g.Config.UptimeTarget {
			return WinnerTeam
		}
		return WinnerNone
	}

	best := g.Players[0]
	for _, p := range g.Players[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best.ID
}

// Finish logs the terminal outcome and returns the winner. Drivers call it
// once, after IsGameOver reports true.
func (g *Game) Finish() int {
	winner := g.GetWinner()

	outcome := "player"
	switch winner {
	case WinnerTeam:
		outcome = "team"
	case WinnerNone:
		outcome = "none"
	}

	g.logEvent(events.EventGameOver, map[string]any{
		"winner":  winner,
		"outcome": outcome,
		"rounds":  g.Round,
		"uptime":  g.CalculateUptime(),
	})
	return winner
}

// servicesSorted returns all services in ascending id order. Engine logic
// never ranges over the services map directly: map order would break seed
// reproducibility.
func (g *Game) servicesSorted() []*types.Service {
	ids := make([]int, 0, len(g.Services))
	for id := range g.Services {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	services := make([]*types.Service, len(ids))
	for i, id := range ids {
		services[i] = g.Services[id]
	}
	return services
}

// roll rolls dice through the shared roller, tagging the record with the
// current round and phase.
func (g *Game) roll(kind dice.Kind, count int) ([]int, int) {
	return g.Dice.Roll(kind, count, dice.Context{Round: g.Round, Phase: string(g.Phase)})
}

func (g *Game) logEvent(t events.EventType, data map[string]any) {
	g.EventLog = append(g.EventLog, LogEntry{
		Elapsed: time.Since(g.startedAt).Seconds(),
		Round:   g.Round,
		Phase:   g.Phase,
		Type:    t,
		Data:    data,
	})

	if g.broker != nil {
		g.broker.Publish(&events.Event{
			GameID: g.GameID,
			Type:   t,
			Round:  g.Round,
			Phase:  string(g.Phase),
			Data:   data,
		})
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
