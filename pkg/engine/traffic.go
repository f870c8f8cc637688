package engine

import (
	"math"

	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/dice"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

const (
	// maxRouteDepth hard-stops runaway recursion through cycles.
	maxRouteDepth = 10
	// maxForwardDepth limits how many hops load balancers and gateways
	// forward traffic downstream.
	maxForwardDepth = 3
	// maxFailureChance caps the overload failure probability.
	maxFailureChance = 0.8
)

// GenerateTraffic rolls 2d10 for this round's inbound request volume and
// adds it to the running total. The caller routes it with ProcessRequests.
func (g *Game) GenerateTraffic() int {
	rolls, requests := g.roll(dice.D10, 2)
	g.TotalRequests += requests

	g.logEvent(events.EventTrafficGenerated, map[string]any{
		"requests":   requests,
		"dice_rolls": rolls,
		"round":      g.Round,
	})
	return requests
}

// ProcessRequests distributes a request volume as evenly as possible across
// every non-failed load balancer and routes each share through the network.
// The whole volume is recorded failed when no entry point exists. Volume is
// conserved: successful plus failed requests grow by exactly the amount
// processed.
func (g *Game) ProcessRequests(requests int) {
	var entryPoints []*types.Service
	for _, s := range g.servicesSorted() {
		if s.Kind == types.ServiceLoadBalancer && s.State != types.StateFailed {
			entryPoints = append(entryPoints, s)
		}
	}

	if len(entryPoints) == 0 {
		g.FailedRequests += requests
		g.logEvent(events.EventTrafficRejected, map[string]any{
			"reason":   "no_load_balancers",
			"requests": requests,
		})
		return
	}

	per := requests / len(entryPoints)
	extra := requests % len(entryPoints)
	for i, lb := range entryPoints {
		share := per
		if i < extra {
			share++
		}
		g.route(lb, share, 0)
	}
}

// route pushes a request amount through one service, escalating its state
// on overload, rolling for failure when load exceeds twice capacity, and
// forwarding downstream from load balancers and gateways.
func (g *Game) route(svc *types.Service, requests, depth int) {
	if depth > maxRouteDepth {
		g.FailedRequests += requests
		return
	}
	if svc.State == types.StateFailed {
		g.FailedRequests += requests
		return
	}

	svc.Load += requests

	capacity := catalog.Capacity(svc.Kind)
	if capacity > 0 && svc.Load > capacity {
		excess := svc.Load - capacity

		// One escalation step per overload event, never backward.
		switch svc.State {
		case types.StateHealthy:
			svc.State = types.StateDegraded
		case types.StateDegraded:
			svc.State = types.StateOverloaded
		}

		if excess > capacity {
			chance := math.Min(maxFailureChance, float64(excess)/float64(capacity))
			if g.rng.Float64() < chance {
				svc.State = types.StateFailed
				g.resolveCascade(svc)
				// In-flight requests go down with the service.
				g.FailedRequests += requests
				return
			}
		}
	}

	forwards := (svc.Kind == types.ServiceLoadBalancer || svc.Kind == types.ServiceAPIGateway) &&
		len(svc.Connections) > 0 && depth < maxForwardDepth

	if forwards {
		var downstream []*types.Service
		for _, id := range svc.ConnectionIDs() {
			if d := g.Services[id]; d.State != types.StateFailed {
				downstream = append(downstream, d)
			}
		}

		if len(downstream) == 0 {
			g.FailedRequests += requests
			return
		}

		per := requests / len(downstream)
		// The integer-division remainder has no destination; it counts
		// as failed so that request volume is conserved end to end.
		g.FailedRequests += requests % len(downstream)
		for _, d := range downstream {
			g.route(d, per, depth+1)
		}
		return
	}

	// Terminal service: requests complete here.
	g.SuccessfulRequests += requests
}
