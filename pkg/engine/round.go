package engine

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

const (
	// healChance is the per-round recovery probability for a degraded
	// service whose load has fallen below half capacity.
	healChance = 0.3
	// loadDecay is subtracted from every service's load each round.
	loadDecay = 1
)

// AdvanceRound closes out the current round: it increments the round
// counter, snapshots uptime into the history, resets every player's action
// budget, decays service load, gives lightly loaded degraded services a
// chance to heal, and bleeds off one point of entropy.
func (g *Game) AdvanceRound() {
	g.Round++

	uptime := g.CalculateUptime()
	g.UptimeHistory = append(g.UptimeHistory, uptime)

	for _, p := range g.Players {
		p.ActionsRemaining = types.DefaultActions
	}

	for _, s := range g.servicesSorted() {
		s.Load -= loadDecay
		if s.Load < 0 {
			s.Load = 0
		}

		capacity := catalog.Capacity(s.Kind)
		if s.State == types.StateDegraded && float64(s.Load) < float64(capacity)*0.5 {
			if g.rng.Float64() < healChance {
				s.State = types.StateHealthy
			}
		}
	}

	if g.Entropy > 0 {
		g.Entropy--
	}

	g.logEvent(events.EventRoundEnded, map[string]any{
		"round":               g.Round,
		"uptime":              uptime,
		"entropy":             g.Entropy,
		"total_requests":      g.TotalRequests,
		"successful_requests": g.SuccessfulRequests,
	})
}

// AdvancePhase performs the canonical work of the current phase and steps
// the state machine forward, returning the new phase. Drivers that need
// finer control (AI loops issuing actions during the action phase) call the
// individual operations and assign Phase directly instead.
func (g *Game) AdvancePhase() types.Phase {
	switch g.Phase {
	case types.PhaseTraffic:
		g.ProcessRequests(g.GenerateTraffic())
		g.Phase = types.PhaseAction
	case types.PhaseAction:
		g.Phase = types.PhaseResolution
	case types.PhaseResolution:
		// Placeholder boundary: post-action bookkeeping belongs to the
		// driver.
		g.Phase = types.PhaseChaos
	case types.PhaseChaos:
		g.ChaosEvent()
		g.AdvanceRound()
		g.Phase = types.PhaseTraffic
	}
	return g.Phase
}
