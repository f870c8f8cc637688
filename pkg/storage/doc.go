/*
Package storage provides BoltDB-backed persistence for experiments, game
results, and final game snapshots.

All records are serialized as JSON. Experiments and snapshots are keyed by
their IDs; results are keyed as "<experimentID>/<gameID>" so a single prefix
scan lists an experiment's games.
*/
package storage
