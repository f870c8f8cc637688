/*
Package types defines the core data model shared across Pipeline & Peril.

The types package contains only data definitions and small invariant-preserving
helpers: service kinds and states, board positions, players and their resource
pools, the immutable game configuration, and the closed action variants
(deploy, repair, scale). No simulation logic lives here; the engine package
owns all state transitions.

# Core Types

Service:
  - One deployed component on the hex board
  - Kind drives cost/capacity lookup in pkg/catalog
  - Connections form a symmetric undirected graph over service ids

Player:
  - Three resource pools (cpu, memory, storage), capped at MaxResource
  - Per-round action budget (DefaultActions) and a monotone score
  - ServicesOwned mirrors Service.Owner at all times

Action:
  - Tagged variant with wire encoding:
    {"type": "deploy", "service_type": "cache", "position": [2, 3]}
    {"type": "repair", "service_id": 4}
    {"type": "scale", "service_id": 4}

Ordering helpers (ConnectionIDs, OwnedServiceIDs) return sorted slices so
that callers iterating sets stay deterministic under a fixed seed.
*/
package types
