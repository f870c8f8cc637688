package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

func TestGenerateTrafficRange(t *testing.T) {
	g := newTestGame(1, 2)

	total := 0
	for i := 0; i < 100; i++ {
		requests := g.GenerateTraffic()
		assert.GreaterOrEqual(t, requests, 2)
		assert.LessOrEqual(t, requests, 20)
		total += requests
	}
	assert.Equal(t, total, g.TotalRequests)
}

func TestProcessRequestsNoEntryPoint(t *testing.T) {
	g := newTestGame(1, 2)
	for _, svc := range g.Services {
		svc.State = types.StateFailed
	}

	g.ProcessRequests(10)

	assert.Equal(t, 10, g.FailedRequests)
	assert.Zero(t, g.SuccessfulRequests)

	last := g.EventLog[len(g.EventLog)-1]
	assert.Equal(t, events.EventTrafficRejected, last.Type)
	assert.Equal(t, "no_load_balancers", last.Data["reason"])
}

func TestProcessRequestsSplitsAcrossLoadBalancers(t *testing.T) {
	g := newTestGame(1, 2)

	// Two isolated starting load balancers, no downstream: traffic
	// terminates at each.
	g.ProcessRequests(10)

	for _, svc := range g.Services {
		assert.Equal(t, 5, svc.Load)
		assert.Equal(t, types.StateHealthy, svc.State)
	}
	assert.Equal(t, 10, g.SuccessfulRequests)
	assert.Zero(t, g.FailedRequests)
}

func TestOverloadEscalatesOneStep(t *testing.T) {
	g := newTestGame(1, 1)
	lb := g.Services[g.Players[0].OwnedServiceIDs()[0]]

	// Capacity 10: 12 requests overload by 2, one escalation step.
	g.ProcessRequests(12)
	assert.Equal(t, types.StateDegraded, lb.State)
	assert.Equal(t, 12, lb.Load)
	assert.Equal(t, 12, g.SuccessfulRequests)

	// 8 more bring load to 20; excess equals capacity, no failure roll yet.
	g.ProcessRequests(8)
	assert.Equal(t, types.StateOverloaded, lb.State)
	assert.Equal(t, 20, g.SuccessfulRequests)
}

func TestLoadBalancerForwardsDownstream(t *testing.T) {
	g := newTestGame(1, 1)
	lb := g.Services[g.Players[0].OwnedServiceIDs()[0]]

	// Both cells neighbor the load balancer at (1,1).
	a, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
	require.NoError(t, err)
	b, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 1, Col: 2}, 0)
	require.NoError(t, err)
	require.Len(t, lb.ConnectionIDs(), 2)

	g.ProcessRequests(10)

	assert.Equal(t, 10, lb.Load)
	assert.Equal(t, 5, a.Load)
	assert.Equal(t, 5, b.Load)
	assert.Equal(t, 10, g.SuccessfulRequests)
	assert.Zero(t, g.FailedRequests)
}

func TestForwardRemainderCountsAsFailed(t *testing.T) {
	g := newTestGame(1, 1)

	_, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
	require.NoError(t, err)
	_, err = g.PlaceService(types.ServiceCompute, types.Position{Row: 1, Col: 2}, 0)
	require.NoError(t, err)

	// 11 across two downstream services leaves one request with no
	// destination.
	g.ProcessRequests(11)

	assert.Equal(t, 10, g.SuccessfulRequests)
	assert.Equal(t, 1, g.FailedRequests)
}

func TestForwardingSkipsFailedDownstream(t *testing.T) {
	g := newTestGame(1, 1)

	a, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
	require.NoError(t, err)
	b, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 1, Col: 2}, 0)
	require.NoError(t, err)
	b.State = types.StateFailed

	g.ProcessRequests(4)

	assert.Equal(t, 4, a.Load)
	assert.Zero(t, b.Load)
	assert.Equal(t, 4, g.SuccessfulRequests)
}

func TestAllDownstreamFailedRejectsTraffic(t *testing.T) {
	g := newTestGame(1, 1)

	a, err := g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
	require.NoError(t, err)
	a.State = types.StateFailed

	g.ProcessRequests(6)

	assert.Equal(t, 6, g.FailedRequests)
	assert.Zero(t, g.SuccessfulRequests)
}

func TestVolumeConservation(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		g := newTestGame(seed, 2)

		// A denser board exercises forwarding, overload, and cascades.
		g.PlaceService(types.ServiceCompute, types.Position{Row: 0, Col: 1}, 0)
		g.PlaceService(types.ServiceDatabase, types.Position{Row: 1, Col: 2}, 0)
		g.PlaceService(types.ServiceAPIGateway, types.Position{Row: 2, Col: 1}, 0)
		g.PlaceService(types.ServiceCache, types.Position{Row: 0, Col: 4}, 1)
		g.PlaceService(types.ServiceQueue, types.Position{Row: 2, Col: 4}, 1)

		for round := 0; round < 8; round++ {
			g.ProcessRequests(g.GenerateTraffic())
			assert.Equal(t, g.TotalRequests, g.SuccessfulRequests+g.FailedRequests,
				"seed %d round %d: request volume must be conserved", seed, round)
		}
	}
}

func TestOverloadFailureNeverRollsBelowTwiceCapacity(t *testing.T) {
	g := newTestGame(1, 1)

	svc, err := g.PlaceService(types.ServiceCache, types.Position{Row: 5, Col: 5}, 0)
	require.NoError(t, err)

	// Excess equal to capacity is not past the failure threshold; the
	// service escalates but never rolls.
	capacity := catalog.Capacity(types.ServiceCache)
	svc.Load = capacity
	g.route(svc, capacity, 0)

	assert.Equal(t, types.StateDegraded, svc.State)
	assert.Zero(t, g.FailedRequests)
	assert.Equal(t, capacity, g.SuccessfulRequests)
}

func TestOverloadFailureRateConvergesToCap(t *testing.T) {
	// Past twice capacity the failure chance is min(0.8, excess/capacity).
	// Excess above capacity drives the ratio past 1, so the cap pins the
	// probability at 0.8; the empirical rate should converge there.
	const trials = 400
	capacity := catalog.Capacity(types.ServiceCache)

	failures := 0
	for seed := int64(1); seed <= trials; seed++ {
		g := newTestGame(seed, 1)
		svc, err := g.PlaceService(types.ServiceCache, types.Position{Row: 5, Col: 5}, 0)
		require.NoError(t, err)

		svc.Load = capacity
		g.route(svc, capacity+1, 0)
		if svc.State == types.StateFailed {
			failures++
		}
	}

	rate := float64(failures) / float64(trials)
	assert.Greater(t, rate, 0.72, "failure rate far below the 80%% cap")
	assert.Less(t, rate, 0.88, "failure rate far above the 80%% cap")
}
