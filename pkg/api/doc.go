/*
Package api serves games over HTTP and streams their events over WebSocket.

The server keeps an in-memory registry of running games keyed by UUID. Each
game is guarded by its own mutex since the engine itself is single-threaded.

Endpoints:

	POST /api/games                      create a game
	GET  /api/games/{id}                 current state snapshot
	GET  /api/games/{id}/actions/{p}     legal actions for a seat
	POST /api/games/{id}/actions         execute one action
	POST /api/games/{id}/advance         advance the phase machine
	POST /api/games/{id}/ai-turn         let the AI seats play the action phase
	GET  /health                         liveness and active game count
	GET  /metrics                        Prometheus metrics
	GET  /ws                             WebSocket event stream
*/
package api
