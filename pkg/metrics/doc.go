/*
Package metrics exposes Prometheus metrics for the simulation.

All metrics carry the pipeline_ prefix. The Collector subscribes to an event
broker and translates simulation events (actions, cascades, chaos, round
summaries) into counters and gauges; ObserveResult records per-game totals
when a batch run finishes. Handler serves the standard /metrics endpoint.
*/
package metrics
