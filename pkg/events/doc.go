/*
Package events provides an in-memory broker for streaming simulation events.

The engine's event log is the durable, in-state record of what happened in a
game; this package is the live counterpart. A Game constructed with a broker
publishes every logged event (deploys, repairs, scales, cascades, chaos,
traffic, round ends) to all subscribers, letting the websocket hub and the
Prometheus collector observe games without touching engine internals.

# Event Flow

 1. Publisher calls broker.Publish(event)
 2. Event lands on a buffered channel (non-blocking for the simulation)
 3. The broadcast loop fans it out to every subscriber channel
 4. Subscribers with full buffers are skipped rather than blocked

Delivery is best effort by design: telemetry must never slow a game down,
and a dropped gauge update is recoverable on the next event.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for ev := range sub {
			switch ev.Type {
			case events.EventCascadeFailure:
				// ...
			}
		}
	}()
*/
package events
