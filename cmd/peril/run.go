package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalsh/pipeline-and-peril/pkg/runner"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run autonomous games",
	Long: `Run one or more fully autonomous games and print the batch summary.

Each game is driven by AI players; the seed fixes every die roll, so a
given seed and scenario always reproduce the same results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath, _ := cmd.Flags().GetString("scenario")
		games, _ := cmd.Flags().GetInt("games")
		players, _ := cmd.Flags().GetInt("players")
		seed, _ := cmd.Flags().GetInt64("seed")
		workers, _ := cmd.Flags().GetInt("workers")
		strategies, _ := cmd.Flags().GetStringSlice("strategies")
		showResults, _ := cmd.Flags().GetBool("results")

		scenario, err := buildScenario(scenarioPath, games, players, seed, strategies)
		if err != nil {
			return err
		}

		r := runner.New(scenario)
		results, err := r.RunMany(cmd.Context(), workers)
		if err != nil {
			return err
		}

		summary := runner.Analyze(results)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if showResults {
			if err := enc.Encode(results); err != nil {
				return err
			}
		}
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().String("scenario", "", "Scenario YAML file")
	runCmd.Flags().Int("games", 1, "Number of games to simulate")
	runCmd.Flags().Int("players", 2, "Players per game (1-4)")
	runCmd.Flags().Int64("seed", 0, "Base seed (0 = current time)")
	runCmd.Flags().Int("workers", 4, "Concurrent games")
	runCmd.Flags().StringSlice("strategies", nil, "Per-seat strategies (aggressive, defensive, balanced, random)")
	runCmd.Flags().Bool("results", false, "Print per-game results before the summary")
}

// buildScenario loads the scenario file if given, then applies flag
// overrides on top.
func buildScenario(path string, games, players int, seed int64, strategies []string) (*runner.Scenario, error) {
	var scenario *runner.Scenario
	if path != "" {
		loaded, err := runner.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenario = loaded
	} else {
		scenario = runner.DefaultScenario()
		scenario.Games = games
		scenario.Players = players
	}

	if seed != 0 {
		scenario.Seed = seed
	} else if scenario.Seed == 0 {
		scenario.Seed = time.Now().UnixNano()
	}

	if len(strategies) > 0 {
		scenario.Strategies = scenario.Strategies[:0]
		for _, s := range strategies {
			strategy := types.Strategy(s)
			valid := false
			for _, known := range types.Strategies {
				if strategy == known {
					valid = true
					break
				}
			}
			if !valid {
				return nil, fmt.Errorf("unknown strategy: %s", s)
			}
			scenario.Strategies = append(scenario.Strategies, strategy)
		}
	}

	return scenario, nil
}
