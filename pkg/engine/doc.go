/*
Package engine implements the Pipeline & Peril game simulation engine.

The engine is the authoritative state machine for one game instance: the
hex board and service-connectivity graph, player resources and scoring,
round/phase progression, traffic routing, cascade propagation, and chaos
events. It is a library, not a service: drivers (CLI, AI loops, the HTTP
API) pump the phase machine and issue actions through its public methods.

# State Machine

A round is four externally driven phases:

	Traffic ──► Action ──► Resolution ──► Chaos ─┐
	   ▲                                          │
	   └──────────── round++ ◄────────────────────┘

Traffic rolls 2d10 for request volume and routes it through every live load
balancer. Action lets each player spend up to three actions (deploy, repair,
scale). Resolution is a placeholder boundary for driver bookkeeping. Chaos
rolls a d8 against the entropy gate, applies a global disruption, and
advances the round (load decay, probabilistic healing, budget reset,
entropy bleed).

# Determinism

One *rand.Rand, seeded at construction, feeds the dice roller and every
probability check. Two games built with the same seed and driven by the
same call sequence evolve identically; all set iteration happens in sorted
id order to keep that guarantee. There are no locks and no goroutines here:
a single instance must be driven serially, while distinct instances can run
on as many goroutines as the driver likes.

# Error Handling

Illegal actions and structural misses (occupied cell, out-of-bounds
position) are boolean/sentinel results, never panics: AI drivers probe
illegal moves constantly while searching. Nothing a driver passes in can
take down a running game.
*/
package engine
