package engine

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// PlayerSnapshot is the serialized view of one player.
type PlayerSnapshot struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Strategy         types.Strategy `json:"strategy"`
	CPU              int            `json:"cpu"`
	Memory           int            `json:"memory"`
	Storage          int            `json:"storage"`
	Score            int            `json:"score"`
	ActionsRemaining int            `json:"actions_remaining"`
	ServicesOwned    []int          `json:"services_owned"`
}

// ServiceSnapshot is the serialized view of one service.
type ServiceSnapshot struct {
	ID          int                `json:"id"`
	Type        types.ServiceKind  `json:"type"`
	Position    types.Position     `json:"position"`
	State       types.ServiceState `json:"state"`
	Load        int                `json:"load"`
	Capacity    int                `json:"capacity"`
	Bugs        int                `json:"bugs"`
	Connections []int              `json:"connections"`
	Owner       int                `json:"owner"`
}

// Snapshot is a full serialized export of the game state, consumed by the
// web layer, rendering, and telemetry collaborators.
type Snapshot struct {
	GameID             string           `json:"game_id,omitempty"`
	Config             types.GameConfig `json:"config"`
	Round              int              `json:"round"`
	Phase              types.Phase      `json:"phase"`
	Entropy            int              `json:"entropy"`
	Uptime             float64          `json:"uptime"`
	Players            []PlayerSnapshot `json:"players"`
	Services           []ServiceSnapshot `json:"services"`
	TotalRequests      int              `json:"total_requests"`
	SuccessfulRequests int              `json:"successful_requests"`
	FailedRequests     int              `json:"failed_requests"`
	UptimeHistory      []float64        `json:"uptime_history"`
}

// Snapshot exports the current game state.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:             g.GameID,
		Config:             g.Config,
		Round:              g.Round,
		Phase:              g.Phase,
		Entropy:            g.Entropy,
		Uptime:             g.CalculateUptime(),
		TotalRequests:      g.TotalRequests,
		SuccessfulRequests: g.SuccessfulRequests,
		FailedRequests:     g.FailedRequests,
		UptimeHistory:      append([]float64(nil), g.UptimeHistory...),
	}

	for _, p := range g.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:               p.ID,
			Name:             p.Name,
			Strategy:         p.Strategy,
			CPU:              p.CPU,
			Memory:           p.Memory,
			Storage:          p.Storage,
			Score:            p.Score,
			ActionsRemaining: p.ActionsRemaining,
			ServicesOwned:    p.OwnedServiceIDs(),
		})
	}

	for _, s := range g.servicesSorted() {
		snap.Services = append(snap.Services, ServiceSnapshot{
			ID:          s.ID,
			Type:        s.Kind,
			Position:    s.Position,
			State:       s.State,
			Load:        s.Load,
			Capacity:    catalog.Capacity(s.Kind),
			Bugs:        s.Bugs,
			Connections: s.ConnectionIDs(),
			Owner:       s.Owner,
		})
	}

	return snap
}
