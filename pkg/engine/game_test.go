package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

func newTestGame(seed int64, players int) *Game {
	return New(types.DefaultConfig(), players, seed, WithGameID("test-game"))
}

func TestNewGamePlacesStartingLoadBalancers(t *testing.T) {
	g := newTestGame(1, 2)

	require.Len(t, g.Players, 2)
	require.Len(t, g.Services, 2)
	assert.Equal(t, types.PhaseTraffic, g.Phase)
	assert.Zero(t, g.Round)

	wantPositions := []types.Position{
		{Row: 1, Col: 1},
		{Row: 1, Col: 4},
	}
	for i, player := range g.Players {
		ids := player.OwnedServiceIDs()
		require.Len(t, ids, 1, "player %d", i)

		svc := g.Services[ids[0]]
		assert.Equal(t, types.ServiceLoadBalancer, svc.Kind)
		assert.Equal(t, types.StateHealthy, svc.State)
		assert.Equal(t, wantPositions[i], svc.Position)
		assert.Equal(t, i, svc.Owner)
	}
}

func TestNewGameFourPlayerCorners(t *testing.T) {
	g := newTestGame(1, 4)

	require.Len(t, g.Services, 4)
	positions := make(map[types.Position]bool)
	for _, svc := range g.Services {
		positions[svc.Position] = true
	}

	for _, want := range []types.Position{
		{Row: 1, Col: 1}, {Row: 1, Col: 4},
		{Row: 6, Col: 1}, {Row: 6, Col: 4},
	} {
		assert.True(t, positions[want], "missing starting service at %v", want)
	}
}

func TestPlayerAndServiceLookup(t *testing.T) {
	g := newTestGame(1, 2)

	_, ok := g.Player(-1)
	assert.False(t, ok)
	_, ok = g.Player(2)
	assert.False(t, ok)

	p, ok := g.Player(1)
	require.True(t, ok)
	assert.Equal(t, 1, p.ID)

	_, ok = g.Service(99)
	assert.False(t, ok)
}

func TestCalculateUptime(t *testing.T) {
	g := newTestGame(1, 2)

	assert.Equal(t, 1.0, g.CalculateUptime())

	g.TotalRequests = 10
	g.SuccessfulRequests = 7
	assert.InDelta(t, 0.7, g.CalculateUptime(), 1e-9)
}

func TestIsGameOverRoundLimit(t *testing.T) {
	g := newTestGame(1, 2)

	assert.False(t, g.IsGameOver())
	g.Round = g.Config.MaxRounds
	assert.True(t, g.IsGameOver())
}

func TestIsGameOverCooperativeTarget(t *testing.T) {
	g := newTestGame(1, 2)

	g.UptimeHistory = []float64{0.5, 0.9, 0.9, 0.9}
	assert.True(t, g.IsGameOver(), "mean of last three snapshots meets the target")

	g.UptimeHistory = []float64{0.9, 0.9, 0.5}
	assert.False(t, g.IsGameOver())

	g.UptimeHistory = []float64{0.9, 0.9}
	assert.False(t, g.IsGameOver(), "needs at least three snapshots")
}

func TestIsGameOverAllServicesLost(t *testing.T) {
	g := newTestGame(1, 2)

	for _, p := range g.Players {
		p.ServicesOwned = make(map[int]struct{})
	}
	assert.True(t, g.IsGameOver())
}

func TestGetWinnerCooperative(t *testing.T) {
	g := newTestGame(1, 2)

	g.UptimeHistory = []float64{0.9, 0.85}
	assert.Equal(t, WinnerTeam, g.GetWinner())

	g.UptimeHistory = []float64{0.5, 0.6}
	assert.Equal(t, WinnerNone, g.GetWinner())

	g.UptimeHistory = nil
	assert.Equal(t, WinnerNone, g.GetWinner())
}

func TestGetWinnerCompetitive(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.CooperativeMode = false
	g := New(cfg, 3, 1)

	g.Players[0].Score = 2
	g.Players[1].Score = 5
	g.Players[2].Score = 5

	// Ties resolve to the earliest seat.
	assert.Equal(t, 1, g.GetWinner())
}

func TestFinishLogsOutcome(t *testing.T) {
	g := newTestGame(1, 2)
	g.UptimeHistory = []float64{0.9}

	winner := g.Finish()
	assert.Equal(t, WinnerTeam, winner)

	last := g.EventLog[len(g.EventLog)-1]
	assert.Equal(t, events.EventGameOver, last.Type)
	assert.Equal(t, "team", last.Data["outcome"])
}

func TestSeedDeterminism(t *testing.T) {
	run := func() *Game {
		g := newTestGame(99, 2)
		for i := 0; i < 32; i++ {
			g.AdvancePhase()
		}
		return g
	}

	a, b := run(), run()

	assert.Equal(t, a.Round, b.Round)
	assert.Equal(t, a.Entropy, b.Entropy)
	assert.Equal(t, a.TotalRequests, b.TotalRequests)
	assert.Equal(t, a.SuccessfulRequests, b.SuccessfulRequests)
	assert.Equal(t, a.FailedRequests, b.FailedRequests)
	assert.Equal(t, a.UptimeHistory, b.UptimeHistory)
	assert.Equal(t, a.Snapshot().Services, b.Snapshot().Services)

	require.Equal(t, len(a.Dice.History()), len(b.Dice.History()))
	for i, roll := range a.Dice.History() {
		assert.Equal(t, roll.Results, b.Dice.History()[i].Results)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	roll := func(seed int64) []int {
		g := newTestGame(seed, 2)
		var totals []int
		for i := 0; i < 10; i++ {
			totals = append(totals, g.GenerateTraffic())
		}
		return totals
	}

	assert.NotEqual(t, roll(1), roll(2))
}

func TestEventLogPublishesToBroker(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	g := New(types.DefaultConfig(), 2, 1, WithGameID("broadcast"), WithBroker(broker))
	require.NotNil(t, g)

	// Creation publishes placement events plus game.created.
	event := <-sub
	assert.Equal(t, "broadcast", event.GameID)
}
