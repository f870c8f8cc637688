package engine

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

const (
	repairCPUCost    = 2
	repairLoadRelief = 3
	scaleCPUCost     = 1
	scaleLoadRelief  = 2
)

// canAfford reports whether the player holds every resource the kind costs.
func canAfford(p *types.Player, kind types.ServiceKind) bool {
	entry, ok := catalog.Lookup(kind)
	if !ok {
		return false
	}
	return p.CPU >= entry.CPUCost && p.Memory >= entry.MemoryCost && p.Storage >= entry.StorageCost
}

// LegalActions enumerates every action the player may take right now: one
// deploy per affordable kind and unoccupied cell, one repair per owned
// degraded or overloaded service, and one scale per owned healthy service
// while the player holds at least one cpu unit. A player with no remaining
// actions (or an unknown id) gets nil.
func (g *Game) LegalActions(playerID int) []types.Action {
	player, ok := g.Player(playerID)
	if !ok || player.ActionsRemaining <= 0 {
		return nil
	}

	var actions []types.Action

	for _, kind := range types.ServiceKinds {
		if !canAfford(player, kind) {
			continue
		}
		for row := 0; row < g.Config.BoardRows; row++ {
			for col := 0; col < g.Config.BoardCols; col++ {
				pos := types.Position{Row: row, Col: col}
				if !g.Board.Occupied(pos) {
					actions = append(actions, types.DeployAction(kind, pos))
				}
			}
		}
	}

	for _, id := range player.OwnedServiceIDs() {
		svc := g.Services[id]
		if svc.State == types.StateDegraded || svc.State == types.StateOverloaded {
			actions = append(actions, types.RepairAction(id))
		}
	}

	for _, id := range player.OwnedServiceIDs() {
		if g.Services[id].State == types.StateHealthy && player.CPU >= scaleCPUCost {
			actions = append(actions, types.ScaleAction(id))
		}
	}

	return actions
}

// ExecuteAction validates and atomically applies one action for the player.
// Illegal actions (insufficient resources, occupied or out-of-bounds cell,
// unowned service, wrong state, exhausted budget) return false and leave
// all state untouched; drivers probing bad moves is the expected case, not
// an error. A successful action consumes one action point and scores one
// point.
func (g *Game) ExecuteAction(playerID int, action types.Action) bool {
	player, ok := g.Player(playerID)
	if !ok || player.ActionsRemaining <= 0 {
		return false
	}

	var success bool
	switch action.Type {
	case types.ActionDeploy:
		success = g.executeDeploy(player, action)
	case types.ActionRepair:
		success = g.executeRepair(player, action)
	case types.ActionScale:
		success = g.executeScale(player, action)
	}

	if success {
		player.ActionsRemaining--
		player.Score++
	}
	return success
}

func (g *Game) executeDeploy(player *types.Player, action types.Action) bool {
	if action.Position == nil {
		return false
	}
	entry, known := catalog.Lookup(action.ServiceKind)
	if !known {
		return false
	}

	pos := *action.Position
	if !g.Board.InBounds(pos) || g.Board.Occupied(pos) {
		return false
	}
	if player.CPU < entry.CPUCost || player.Memory < entry.MemoryCost || player.Storage < entry.StorageCost {
		return false
	}

	player.CPU -= entry.CPUCost
	player.Memory -= entry.MemoryCost
	player.Storage -= entry.StorageCost

	svc, err := g.PlaceService(action.ServiceKind, pos, player.ID)
	if err != nil {
		player.CPU += entry.CPUCost
		player.Memory += entry.MemoryCost
		player.Storage += entry.StorageCost
		return false
	}

	g.logEvent(events.EventServiceDeployed, map[string]any{
		"player_id":    player.ID,
		"service_id":   svc.ID,
		"service_type": svc.Kind,
		"position":     svc.Position,
	})
	return true
}

func (g *Game) executeRepair(player *types.Player, action types.Action) bool {
	if !player.Owns(action.ServiceID) || player.CPU < repairCPUCost {
		return false
	}
	svc := g.Services[action.ServiceID]
	if svc.State != types.StateDegraded && svc.State != types.StateOverloaded {
		return false
	}

	svc.State = types.StateHealthy
	svc.Load -= repairLoadRelief
	if svc.Load < 0 {
		svc.Load = 0
	}
	player.CPU -= repairCPUCost

	g.logEvent(events.EventServiceRepaired, map[string]any{
		"player_id":  player.ID,
		"service_id": svc.ID,
	})
	return true
}

func (g *Game) executeScale(player *types.Player, action types.Action) bool {
	if !player.Owns(action.ServiceID) || player.CPU < scaleCPUCost {
		return false
	}
	svc := g.Services[action.ServiceID]

	svc.Load -= scaleLoadRelief
	if svc.Load < 0 {
		svc.Load = 0
	}
	player.CPU -= scaleCPUCost

	g.logEvent(events.EventServiceScaled, map[string]any{
		"player_id":  player.ID,
		"service_id": svc.ID,
	})
	return true
}
