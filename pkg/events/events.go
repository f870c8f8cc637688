package events

import (
	"sync"
	"time"
)

// EventType represents the type of game event
type EventType string

const (
	EventGameCreated      EventType = "game.created"
	EventGameOver         EventType = "game.over"
	EventServicePlaced    EventType = "service.placed"
	EventServiceDeployed  EventType = "service.deployed"
	EventServiceRepaired  EventType = "service.repaired"
	EventServiceScaled    EventType = "service.scaled"
	EventTrafficGenerated EventType = "traffic.generated"
	EventTrafficRejected  EventType = "traffic.rejected"
	EventCascadeChecked   EventType = "cascade.checked"
	EventCascadeFailure   EventType = "cascade.failure"
	EventChaosTriggered   EventType = "chaos.triggered"
	EventRoundEnded       EventType = "round.ended"
)

// Event represents one simulation event
type Event struct {
	GameID    string         `json:"game_id,omitempty"`
	Type      EventType      `json:"type"`
	Round     int            `json:"round"`
	Phase     string         `json:"phase"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker fans simulation events out to telemetry and streaming subscribers
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 256), // engines burst during cascades
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish publishes an event to all subscribers. Publishing never blocks a
// running simulation: if the broker is stopped the event is dropped.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
