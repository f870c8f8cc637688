package storage

import (
	"time"

	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/runner"
)

// Experiment is a tracked batch of simulated games.
type Experiment struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Scenario    *runner.Scenario `json:"scenario"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Summary     *runner.Summary  `json:"summary,omitempty"`
}

// Experiment status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store defines the interface for experiment persistence.
type Store interface {
	// Experiments
	CreateExperiment(exp *Experiment) error
	GetExperiment(id string) (*Experiment, error)
	ListExperiments() ([]*Experiment, error)
	UpdateExperiment(exp *Experiment) error
	DeleteExperiment(id string) error

	// Results
	SaveResult(experimentID string, result *runner.Result) error
	ListResults(experimentID string) ([]*runner.Result, error)

	// Snapshots
	SaveSnapshot(gameID string, snapshot *engine.Snapshot) error
	GetSnapshot(gameID string) (*engine.Snapshot, error)

	// Utility
	Close() error
}
