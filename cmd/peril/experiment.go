package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/log"
	"github.com/jwalsh/pipeline-and-peril/pkg/metrics"
	"github.com/jwalsh/pipeline-and-peril/pkg/runner"
	"github.com/jwalsh/pipeline-and-peril/pkg/storage"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run and track simulation experiments",
}

var experimentRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario batch and persist the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath, _ := cmd.Flags().GetString("scenario")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		name, _ := cmd.Flags().GetString("name")
		workers, _ := cmd.Flags().GetInt("workers")

		if scenarioPath == "" {
			return fmt.Errorf("--scenario is required")
		}
		scenario, err := runner.LoadScenario(scenarioPath)
		if err != nil {
			return err
		}
		if scenario.Seed == 0 {
			scenario.Seed = time.Now().UnixNano()
		}
		if name == "" {
			name = scenario.Name
		}

		store, err := storage.NewBoltStore(dataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		exp := &storage.Experiment{
			ID:        uuid.New().String(),
			Name:      name,
			Scenario:  scenario,
			Status:    storage.StatusRunning,
			CreatedAt: time.Now(),
		}
		if err := store.CreateExperiment(exp); err != nil {
			return err
		}

		logger := log.WithComponent("experiment")
		logger.Info().
			Str("experiment_id", exp.ID).
			Str("name", name).
			Int("games", scenario.Games).
			Msg("Experiment started")

		saveSnapshot := runner.WithSnapshots(func(gameID string, snapshot *engine.Snapshot) {
			if err := store.SaveSnapshot(gameID, snapshot); err != nil {
				logger.Warn().Err(err).Str("game_id", gameID).Msg("Failed to save snapshot")
			}
		})
		results, runErr := runner.New(scenario, saveSnapshot).RunMany(cmd.Context(), workers)
		for i := range results {
			if err := store.SaveResult(exp.ID, &results[i]); err != nil {
				logger.Warn().Err(err).Str("game_id", results[i].GameID).Msg("Failed to save result")
			}
			metrics.ObserveResult(&results[i])
		}

		summary := runner.Analyze(results)
		now := time.Now()
		exp.CompletedAt = &now
		exp.Summary = &summary
		exp.Status = storage.StatusCompleted
		if runErr != nil {
			exp.Status = storage.StatusFailed
		}
		if err := store.UpdateExperiment(exp); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	},
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored experiments",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		store, err := storage.NewBoltStore(dataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		experiments, err := store.ListExperiments()
		if err != nil {
			return err
		}

		for _, exp := range experiments {
			line := fmt.Sprintf("%s  %-20s  %-10s  %s", exp.ID, exp.Name, exp.Status, exp.CreatedAt.Format(time.RFC3339))
			if exp.Summary != nil {
				line += fmt.Sprintf("  uptime=%.3f", exp.Summary.MeanUptime)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <experiment-id>",
	Short: "Show one experiment and its game results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		store, err := storage.NewBoltStore(dataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		exp, err := store.GetExperiment(args[0])
		if err != nil {
			return err
		}
		results, err := store.ListResults(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"experiment": exp,
			"results":    results,
		})
	},
}

func init() {
	experimentCmd.PersistentFlags().String("data-dir", "./data", "Directory for the experiment database")

	experimentRunCmd.Flags().String("scenario", "", "Scenario YAML file")
	experimentRunCmd.Flags().String("name", "", "Experiment name (defaults to the scenario name)")
	experimentRunCmd.Flags().Int("workers", 4, "Concurrent games")

	experimentCmd.AddCommand(experimentRunCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentShowCmd)
}
