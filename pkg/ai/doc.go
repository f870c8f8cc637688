// Package ai provides heuristic autonomous players. Each player ranks the
// legal actions for its seat using strategy-specific weights and service
// preferences, with an urgent-repair override for overloaded services.
//
// Players are engine clients, not engine internals: they keep their own
// random source, so swapping strategies never perturbs the simulation's
// seeded dice sequence.
package ai
