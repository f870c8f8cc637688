package metrics

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/runner"
)

// Collector translates simulation events into Prometheus metrics.
type Collector struct {
	broker *events.Broker
	sub    events.Subscriber
	stopCh chan struct{}
}

// NewCollector creates a collector for the broker.
func NewCollector(broker *events.Broker) *Collector {
	return &Collector{
		broker: broker,
		stopCh: make(chan struct{}),
	}
}

// Start subscribes to the broker and begins consuming events.
func (c *Collector) Start() {
	c.sub = c.broker.Subscribe()
	go func() {
		for {
			select {
			case event, ok := <-c.sub:
				if !ok {
					return
				}
				c.record(event)
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	c.broker.Unsubscribe(c.sub)
	close(c.stopCh)
}

func (c *Collector) record(event *events.Event) {
	switch event.Type {
	case events.EventGameCreated:
		GamesStarted.Inc()

	case events.EventGameOver:
		outcome, _ := event.Data["outcome"].(string)
		if outcome == "" {
			outcome = "unknown"
		}
		GamesCompleted.WithLabelValues(outcome).Inc()

	case events.EventServiceDeployed:
		ActionsTotal.WithLabelValues("deploy").Inc()
	case events.EventServiceRepaired:
		ActionsTotal.WithLabelValues("repair").Inc()
	case events.EventServiceScaled:
		ActionsTotal.WithLabelValues("scale").Inc()

	case events.EventCascadeChecked:
		CascadeChecks.Inc()
	case events.EventCascadeFailure:
		CascadeFailures.Inc()

	case events.EventChaosTriggered:
		kind, _ := event.Data["type"].(string)
		if kind == "" {
			kind = "unknown"
		}
		ChaosEvents.WithLabelValues(kind).Inc()

	case events.EventRoundEnded:
		if uptime, ok := toFloat(event.Data["uptime"]); ok {
			Uptime.Set(uptime)
		}
		if entropy, ok := toFloat(event.Data["entropy"]); ok {
			Entropy.Set(entropy)
		}
	}
}

// ObserveResult records the per-game metrics from a finished simulation.
func ObserveResult(result *runner.Result) {
	GameRounds.Observe(float64(result.Rounds))
	RequestsTotal.WithLabelValues("success").Add(float64(result.SuccessfulRequests))
	RequestsTotal.WithLabelValues("failed").Add(float64(result.FailedRequests))
}

// toFloat normalizes the numeric types an event payload may carry,
// including values that round-tripped through JSON.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
