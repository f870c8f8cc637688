package runner

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwalsh/pipeline-and-peril/pkg/ai"
	"github.com/jwalsh/pipeline-and-peril/pkg/catalog"
	"github.com/jwalsh/pipeline-and-peril/pkg/dice"
	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/log"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

const (
	// Overloaded services face a failure check each resolution phase.
	resolutionFailThreshold = 1.5
	resolutionFailTarget    = 8 // d20, 40%
	// Services running hot but under the failure threshold may degrade.
	resolutionDegradeThreshold = 1.2
	resolutionDegradeTarget    = 6 // d20, 30%
)

// Scenario describes a batch of games to simulate.
type Scenario struct {
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Games       int              `yaml:"games" json:"games"`
	Players     int              `yaml:"players" json:"players"`
	Strategies  []types.Strategy `yaml:"strategies,omitempty" json:"strategies,omitempty"`
	Seed        int64            `yaml:"seed" json:"seed"`
	Config      types.GameConfig `yaml:"config" json:"config"`
}

// DefaultScenario is a two-player balanced-vs-aggressive batch of one game.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:       "default",
		Games:      1,
		Players:    2,
		Strategies: []types.Strategy{types.StrategyBalanced, types.StrategyAggressive},
		Seed:       time.Now().UnixNano(),
		Config:     types.DefaultConfig(),
	}
}

// LoadScenario reads a scenario definition from a YAML file. Unset fields
// fall back to the defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	scenario := DefaultScenario()
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if scenario.Games < 1 {
		scenario.Games = 1
	}
	if scenario.Players < 1 || scenario.Players > 4 {
		return nil, fmt.Errorf("scenario %s: players must be 1-4, got %d", path, scenario.Players)
	}
	return scenario, nil
}

// Result captures the outcome of a single simulated game.
type Result struct {
	GameID             string           `json:"game_id"`
	Seed               int64            `json:"seed"`
	Rounds             int              `json:"rounds"`
	Winner             int              `json:"winner"`
	CooperativeWin     bool             `json:"cooperative_win"`
	FinalUptime        float64          `json:"final_uptime"`
	MeanUptime         float64          `json:"mean_uptime"`
	TotalRequests      int              `json:"total_requests"`
	SuccessfulRequests int              `json:"successful_requests"`
	FailedRequests     int              `json:"failed_requests"`
	ActionsTaken       int              `json:"actions_taken"`
	ServicesAlive      int              `json:"services_alive"`
	Entropy            int              `json:"entropy"`
	Strategies         []types.Strategy `json:"strategies"`
	Duration           time.Duration    `json:"duration_ns"`
}

// Summary aggregates a batch of results.
type Summary struct {
	Games           int                        `json:"games"`
	CooperativeWins int                        `json:"cooperative_wins"`
	WinRate         float64                    `json:"win_rate"`
	MeanRounds      float64                    `json:"mean_rounds"`
	MeanUptime      float64                    `json:"mean_uptime"`
	UptimeStdDev    float64                    `json:"uptime_std_dev"`
	MeanActions     float64                    `json:"mean_actions"`
	WinsByStrategy  map[types.Strategy]int     `json:"wins_by_strategy"`
}

// Runner drives autonomous games for a scenario.
type Runner struct {
	scenario   *Scenario
	broker     *events.Broker
	snapshotFn SnapshotFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithBroker publishes every game's events to the given broker.
func WithBroker(b *events.Broker) Option {
	return func(r *Runner) { r.broker = b }
}

// SnapshotFunc receives a finished game's terminal state.
type SnapshotFunc func(gameID string, snapshot *engine.Snapshot)

// WithSnapshots invokes fn with every finished game's final snapshot, e.g.
// to persist it. The hook may be called from concurrent workers.
func WithSnapshots(fn SnapshotFunc) Option {
	return func(r *Runner) { r.snapshotFn = fn }
}

// New creates a Runner for the scenario.
func New(scenario *Scenario, opts ...Option) *Runner {
	r := &Runner{scenario: scenario}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunSingle simulates one full game with the given seed and returns its
// result. The same seed always produces the same result.
func (r *Runner) RunSingle(ctx context.Context, seed int64) (*Result, error) {
	gameID := uuid.New().String()
	logger := log.WithGame(gameID)

	strategies := r.strategies()
	gameOpts := []engine.Option{engine.WithGameID(gameID)}
	if r.broker != nil {
		gameOpts = append(gameOpts, engine.WithBroker(r.broker))
	}
	g := engine.New(r.scenario.Config, r.scenario.Players, seed, gameOpts...)
	manager := ai.NewManager(strategies, seed)

	logger.Info().
		Int64("seed", seed).
		Int("players", r.scenario.Players).
		Msg("Starting autonomous game")

	started := time.Now()
	actionsTaken := 0
	// Guard against a phase machine that never reaches a terminal state.
	maxSteps := (r.scenario.Config.MaxRounds + 1) * 8

	for step := 0; !g.IsGameOver() && step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch g.Phase {
		case types.PhaseAction:
			actionsTaken += manager.PlayActionPhase(g)
		case types.PhaseResolution:
			r.resolveServiceChecks(g)
		}
		g.AdvancePhase()
	}

	result := r.collect(g, seed, strategies, actionsTaken, time.Since(started))

	if r.snapshotFn != nil {
		snapshot := g.Snapshot()
		r.snapshotFn(gameID, &snapshot)
	}

	logger.Info().
		Int("rounds", result.Rounds).
		Float64("uptime", result.FinalUptime).
		Int("winner", result.Winner).
		Msg("Game finished")

	return result, nil
}

// RunMany simulates the scenario's full batch across the given number of
// workers. Seeds are derived from the scenario seed so batches reproduce.
func (r *Runner) RunMany(ctx context.Context, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int64)
	results := make([]Result, 0, r.scenario.Games)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range jobs {
				res, err := r.RunSingle(ctx, seed)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					results = append(results, *res)
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < r.scenario.Games; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results, ctx.Err()
		case jobs <- r.scenario.Seed + int64(i):
		}
	}
	close(jobs)
	wg.Wait()

	return results, firstErr
}

// Analyze computes batch statistics over a set of results.
func Analyze(results []Result) Summary {
	summary := Summary{
		Games:          len(results),
		WinsByStrategy: make(map[types.Strategy]int),
	}
	if len(results) == 0 {
		return summary
	}

	var rounds, actions int
	var uptimes []float64
	for _, res := range results {
		rounds += res.Rounds
		actions += res.ActionsTaken
		uptimes = append(uptimes, res.MeanUptime)
		if res.CooperativeWin {
			summary.CooperativeWins++
		}
		if res.Winner >= 0 && res.Winner < len(res.Strategies) {
			summary.WinsByStrategy[res.Strategies[res.Winner]]++
		}
	}

	n := float64(len(results))
	summary.WinRate = float64(summary.CooperativeWins) / n
	summary.MeanRounds = float64(rounds) / n
	summary.MeanActions = float64(actions) / n

	var sum float64
	for _, u := range uptimes {
		sum += u
	}
	mean := sum / n
	summary.MeanUptime = mean

	var variance float64
	for _, u := range uptimes {
		variance += (u - mean) * (u - mean)
	}
	summary.UptimeStdDev = math.Sqrt(variance / n)

	return summary
}

// resolveServiceChecks runs the resolution-phase stability checks: services
// far over capacity may fail outright, services merely running hot may
// degrade. Rolls go through the game's dice so the checks stay seeded.
func (r *Runner) resolveServiceChecks(g *engine.Game) {
	snapshot := g.Snapshot()
	for _, s := range snapshot.Services {
		svc, ok := g.Service(s.ID)
		if !ok || svc.State == types.StateFailed {
			continue
		}
		capacity := catalog.Capacity(svc.Kind)
		if capacity == 0 {
			continue
		}
		load := float64(svc.Load)
		ctx := dice.Context{Round: g.Round, Phase: string(types.PhaseResolution)}

		switch {
		case load > float64(capacity)*resolutionFailThreshold:
			if _, total := g.Dice.Roll(dice.D20, 1, ctx); total <= resolutionFailTarget {
				svc.State = types.StateFailed
			}
		case load > float64(capacity)*resolutionDegradeThreshold && svc.State == types.StateHealthy:
			if _, total := g.Dice.Roll(dice.D20, 1, ctx); total <= resolutionDegradeTarget {
				svc.State = types.StateDegraded
			}
		}
	}
}

func (r *Runner) strategies() []types.Strategy {
	strategies := make([]types.Strategy, r.scenario.Players)
	for i := range strategies {
		if i < len(r.scenario.Strategies) {
			strategies[i] = r.scenario.Strategies[i]
		} else {
			strategies[i] = types.Strategies[i%len(types.Strategies)]
		}
	}
	return strategies
}

func (r *Runner) collect(g *engine.Game, seed int64, strategies []types.Strategy, actions int, elapsed time.Duration) *Result {
	alive := 0
	snapshot := g.Snapshot()
	for _, s := range snapshot.Services {
		if s.State != types.StateFailed {
			alive++
		}
	}

	var meanUptime float64
	if len(g.UptimeHistory) > 0 {
		var sum float64
		for _, u := range g.UptimeHistory {
			sum += u
		}
		meanUptime = sum / float64(len(g.UptimeHistory))
	} else {
		meanUptime = g.CalculateUptime()
	}

	winner := g.Finish()
	return &Result{
		GameID:             g.GameID,
		Seed:               seed,
		Rounds:             g.Round,
		Winner:             winner,
		CooperativeWin:     winner == engine.WinnerTeam,
		FinalUptime:        g.CalculateUptime(),
		MeanUptime:         meanUptime,
		TotalRequests:      g.TotalRequests,
		SuccessfulRequests: g.SuccessfulRequests,
		FailedRequests:     g.FailedRequests,
		ActionsTaken:       actions,
		ServicesAlive:      alive,
		Entropy:            g.Entropy,
		Strategies:         strategies,
		Duration:           elapsed,
	}
}
