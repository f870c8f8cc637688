// Package runner drives fully autonomous games: AI players take the action
// phase, the runner applies resolution-phase stability checks, and batches
// of seeded games fan out across a worker pool for reproducible experiments.
package runner
