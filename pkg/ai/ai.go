package ai

import (
	"math"
	"math/rand"
	"sort"

	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// urgentRepairChance is how often a player drops everything to fix a
// critically loaded service.
const urgentRepairChance = 0.8

// Weights tune how a strategy values each action type.
type Weights struct {
	Deploy                float64
	Repair                float64
	Scale                 float64
	ConservativeThreshold float64
	ExpansionRate         float64
	Preferences           map[types.ServiceKind]float64
}

// Player is an autonomous engine client. It only ever calls LegalActions
// and ExecuteAction-adjacent queries; it holds no engine state and draws
// from its own random source so engine determinism is untouched.
type Player struct {
	PlayerID int
	Strategy types.Strategy

	weights Weights
	rng     *rand.Rand
}

// NewPlayer creates an AI player for the given seat and strategy. The seed
// fixes the player's tie-breaking randomness.
func NewPlayer(playerID int, strategy types.Strategy, seed int64) *Player {
	rng := rand.New(rand.NewSource(seed))
	return &Player{
		PlayerID: playerID,
		Strategy: strategy,
		weights:  weightsFor(strategy, rng),
		rng:      rng,
	}
}

func weightsFor(strategy types.Strategy, rng *rand.Rand) Weights {
	switch strategy {
	case types.StrategyAggressive:
		return Weights{
			Deploy:                0.5,
			Repair:                0.1,
			Scale:                 0.2,
			ConservativeThreshold: 0.2,
			ExpansionRate:         0.8,
			Preferences: map[types.ServiceKind]float64{
				types.ServiceLoadBalancer: 2.0,
				types.ServiceAPIGateway:   1.8,
				types.ServiceCompute:      1.5,
				types.ServiceCache:        1.2,
				types.ServiceQueue:        1.0,
				types.ServiceDatabase:     0.8,
			},
		}
	case types.StrategyDefensive:
		return Weights{
			Deploy:                0.2,
			Repair:                0.4,
			Scale:                 0.3,
			ConservativeThreshold: 0.7,
			ExpansionRate:         0.3,
			Preferences: map[types.ServiceKind]float64{
				types.ServiceDatabase:     2.0,
				types.ServiceCache:        1.8,
				types.ServiceQueue:        1.5,
				types.ServiceCompute:      1.2,
				types.ServiceLoadBalancer: 1.0,
				types.ServiceAPIGateway:   0.8,
			},
		}
	case types.StrategyRandom:
		prefs := make(map[types.ServiceKind]float64, len(types.ServiceKinds))
		for _, kind := range types.ServiceKinds {
			prefs[kind] = 0.5 + rng.Float64()*1.5
		}
		return Weights{
			Deploy:                0.2 + rng.Float64()*0.4,
			Repair:                0.1 + rng.Float64()*0.3,
			Scale:                 0.1 + rng.Float64()*0.2,
			ConservativeThreshold: 0.2 + rng.Float64()*0.6,
			ExpansionRate:         0.2 + rng.Float64()*0.6,
			Preferences:           prefs,
		}
	default: // balanced
		prefs := make(map[types.ServiceKind]float64, len(types.ServiceKinds))
		for _, kind := range types.ServiceKinds {
			prefs[kind] = 1.0
		}
		return Weights{
			Deploy:                0.35,
			Repair:                0.25,
			Scale:                 0.15,
			ConservativeThreshold: 0.4,
			ExpansionRate:         0.5,
			Preferences:           prefs,
		}
	}
}

// ChooseAction picks an action for the current game state, or reports false
// when the player has no legal move left.
func (p *Player) ChooseAction(g *engine.Game) (types.Action, bool) {
	legal := g.LegalActions(p.PlayerID)
	if len(legal) == 0 {
		return types.Action{}, false
	}

	if urgent := p.urgentRepairs(g, legal); len(urgent) > 0 && p.rng.Float64() < urgentRepairChance {
		return urgent[p.rng.Intn(len(urgent))], true
	}

	if p.Strategy == types.StrategyRandom {
		return legal[p.rng.Intn(len(legal))], true
	}

	type scored struct {
		score  float64
		action types.Action
	}
	scoredActions := make([]scored, 0, len(legal))
	for _, action := range legal {
		scoredActions = append(scoredActions, scored{p.scoreAction(g, action), action})
	}
	sort.SliceStable(scoredActions, func(i, j int) bool {
		return scoredActions[i].score > scoredActions[j].score
	})

	// Weighted pick among the top three keeps play varied without
	// abandoning the ranking.
	top := scoredActions
	if len(top) > 3 {
		top = top[:3]
	}
	total := 0.0
	for _, s := range top {
		total += math.Max(s.score, 0.01)
	}
	pick := p.rng.Float64() * total
	for _, s := range top {
		pick -= math.Max(s.score, 0.01)
		if pick <= 0 {
			return s.action, true
		}
	}
	return top[len(top)-1].action, true
}

// urgentRepairs filters the legal repair actions down to services that are
// overloaded or carrying more than 1.5x their capacity.
func (p *Player) urgentRepairs(g *engine.Game, legal []types.Action) []types.Action {
	var urgent []types.Action
	for _, action := range legal {
		if action.Type != types.ActionRepair {
			continue
		}
		svc, ok := g.Service(action.ServiceID)
		if !ok {
			continue
		}
		capacity := catalog.Capacity(svc.Kind)
		if svc.State == types.StateOverloaded || float64(svc.Load) > float64(capacity)*1.5 {
			urgent = append(urgent, action)
		}
	}
	return urgent
}

func (p *Player) scoreAction(g *engine.Game, action types.Action) float64 {
	var base float64
	switch action.Type {
	case types.ActionDeploy:
		base = p.scoreDeploy(g, action) * p.weights.Deploy
	case types.ActionRepair:
		base = p.scoreRepair(g, action) * p.weights.Repair
	case types.ActionScale:
		base = p.scoreScale(g, action) * p.weights.Scale
	}
	// Jitter breaks up deterministic loops between equally ranked moves.
	return base + (p.rng.Float64()*0.2 - 0.1)
}

func (p *Player) scoreDeploy(g *engine.Game, action types.Action) float64 {
	player, ok := g.Player(p.PlayerID)
	if !ok || action.Position == nil {
		return 0
	}
	entry, _ := catalog.Lookup(action.ServiceKind)

	score := p.weights.Preferences[action.ServiceKind]

	if cost := entry.TotalCost(); cost > 0 {
		score += float64(entry.Capacity) / float64(cost) * 0.5
	}

	score += p.scorePosition(g, *action.Position)

	if nearby := countNearbyServices(g, *action.Position); nearby > 0 {
		score += float64(nearby) * 0.3
	}

	if action.ServiceKind == types.ServiceLoadBalancer {
		owned := 0
		for _, id := range player.OwnedServiceIDs() {
			if svc, ok := g.Service(id); ok && svc.Kind == types.ServiceLoadBalancer {
				owned++
			}
		}
		switch {
		case owned == 0:
			score += 2.0
		case owned < 2:
			score += 1.0
		}
	}

	remaining := player.CPU + player.Memory + player.Storage - entry.TotalCost()
	if float64(remaining) < p.weights.ConservativeThreshold*30 {
		score *= 0.5
	}

	return score
}

func (p *Player) scoreRepair(g *engine.Game, action types.Action) float64 {
	svc, ok := g.Service(action.ServiceID)
	if !ok {
		return 0
	}

	score := 1.0
	switch svc.State {
	case types.StateFailed:
		score += 3.0
	case types.StateOverloaded:
		score += 2.0
	case types.StateDegraded:
		score += 1.0
	}

	if svc.Kind == types.ServiceLoadBalancer || svc.Kind == types.ServiceDatabase {
		score += 1.5
	}
	if len(svc.Connections) > 3 {
		score += 1.0
	}
	if capacity := catalog.Capacity(svc.Kind); svc.Load > capacity {
		score += float64(svc.Load-capacity) * 0.1
	}

	return score
}

func (p *Player) scoreScale(g *engine.Game, action types.Action) float64 {
	svc, ok := g.Service(action.ServiceID)
	if !ok {
		return 0
	}

	score := 0.5
	if capacity := catalog.Capacity(svc.Kind); capacity > 0 {
		switch ratio := float64(svc.Load) / float64(capacity); {
		case ratio > 0.8:
			score += 2.0
		case ratio > 0.6:
			score += 1.0
		}
	}
	if svc.Kind == types.ServiceCache || svc.Kind == types.ServiceQueue {
		score += 0.5
	}
	return score
}

// scorePosition prefers central cells, then applies strategy-specific
// territory preferences.
func (p *Player) scorePosition(g *engine.Game, pos types.Position) float64 {
	centerRow := g.Config.BoardRows / 2
	centerCol := g.Config.BoardCols / 2

	distance := abs(pos.Row-centerRow) + abs(pos.Col-centerCol)
	maxDistance := centerRow + centerCol
	score := 0.0
	if maxDistance > 0 {
		score += (1.0 - float64(distance)/float64(maxDistance)) * 0.5
	}

	switch p.Strategy {
	case types.StrategyAggressive:
		score += p.scoreProximity(g, pos, false)
	case types.StrategyDefensive:
		score += p.scoreProximity(g, pos, true)
	}
	return score
}

// scoreProximity rewards closeness to own services (defensive) or to
// opponent services (aggressive expansion).
func (p *Player) scoreProximity(g *engine.Game, pos types.Position, own bool) float64 {
	minDistance := math.MaxInt32
	for _, svc := range g.Services {
		if (svc.Owner == p.PlayerID) != own {
			continue
		}
		d := abs(pos.Row-svc.Position.Row) + abs(pos.Col-svc.Position.Col)
		if d < minDistance {
			minDistance = d
		}
	}
	if minDistance == math.MaxInt32 {
		return 0
	}
	return 1.0 / float64(minDistance+1)
}

// countNearbyServices counts occupied cells within two rows/cols of pos.
func countNearbyServices(g *engine.Game, pos types.Position) int {
	count := 0
	for r := max(0, pos.Row-2); r < min(g.Config.BoardRows, pos.Row+3); r++ {
		for c := max(0, pos.Col-2); c < min(g.Config.BoardCols, pos.Col+3); c++ {
			if g.Board.Occupied(types.Position{Row: r, Col: c}) {
				count++
			}
		}
	}
	return count
}

// Manager drives one AI player per seat through the action phase.
type Manager struct {
	players []*Player
}

// NewManager creates AI players for the given strategies, one per seat,
// with per-seat seeds derived from the base seed.
func NewManager(strategies []types.Strategy, seed int64) *Manager {
	m := &Manager{}
	for i, strategy := range strategies {
		m.players = append(m.players, NewPlayer(i, strategy, seed+int64(i)))
	}
	return m
}

// GetAction returns the chosen action for the seat, if any.
func (m *Manager) GetAction(playerID int, g *engine.Game) (types.Action, bool) {
	if playerID < 0 || playerID >= len(m.players) {
		return types.Action{}, false
	}
	return m.players[playerID].ChooseAction(g)
}

// PlayActionPhase lets every seat spend its remaining action budget,
// returning the number of successful actions. A failed or missing action
// forfeits the seat's remaining budget, mirroring how human players pass.
func (m *Manager) PlayActionPhase(g *engine.Game) int {
	taken := 0
	for playerID := range m.players {
		player, ok := g.Player(playerID)
		if !ok {
			continue
		}
		for player.ActionsRemaining > 0 {
			action, ok := m.GetAction(playerID, g)
			if !ok {
				break
			}
			if !g.ExecuteAction(playerID, action) {
				break
			}
			taken++
		}
	}
	return taken
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
