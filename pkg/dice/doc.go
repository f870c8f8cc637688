/*
Package dice implements seeded dice rolling for the simulation engine.

Every probabilistic decision in a game flows through one Roller backed by a
single *rand.Rand, so two games constructed with the same seed and driven by
the same action sequence roll identical dice. Each roll is appended to a
history with its round/phase context for audit and telemetry; the most
recent roll is tracked separately for display.

Unknown die kinds fall back to d6 rather than failing: drivers (AI search,
external agents) probe the engine freely, and a bad die name should degrade,
not crash. The fallback is flagged on the roll record.
*/
package dice
