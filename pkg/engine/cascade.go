package engine

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/dice"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

const (
	// cascadeThreshold is the d20 result at or below which a failure
	// cascades (8/20 = 40% base chance).
	cascadeThreshold = 8
	// cascadeLoad is the extra load dumped on each cascading neighbor.
	cascadeLoad = 5
	// cascadeChance is the per-neighbor probability of recursive
	// propagation.
	cascadeChance = 0.3
)

// resolveCascade runs the cascade check for a service that just failed.
// Propagation is bounded by a visited set: every service triggers at most
// one cascade check per originating failure, so recursion cannot exceed
// the node count even on densely connected boards.
func (g *Game) resolveCascade(origin *types.Service) {
	visited := map[int]struct{}{origin.ID: {}}
	g.cascadeCheck(origin, visited)
}

func (g *Game) cascadeCheck(failed *types.Service, visited map[int]struct{}) {
	_, roll := g.roll(dice.D20, 1)
	cascades := roll <= cascadeThreshold

	g.logEvent(events.EventCascadeChecked, map[string]any{
		"origin_service": failed.ID,
		"cascade_roll":   roll,
		"cascaded":       cascades,
	})
	if !cascades {
		return
	}

	g.logEvent(events.EventCascadeFailure, map[string]any{
		"origin_service": failed.ID,
		"cascade_roll":   roll,
	})

	for _, id := range failed.ConnectionIDs() {
		neighbor := g.Services[id]
		if neighbor.State == types.StateFailed {
			continue
		}

		neighbor.State = types.StateCascading
		neighbor.Load += cascadeLoad

		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		if g.rng.Float64() < cascadeChance {
			g.cascadeCheck(neighbor, visited)
		}
	}
}
