package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Game metrics
	GamesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_games_total",
			Help: "Total number of games started",
		},
	)

	GamesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_games_completed_total",
			Help: "Total number of games completed by outcome",
		},
		[]string{"outcome"},
	)

	GameRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_game_rounds",
			Help:    "Rounds played per completed game",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
	)

	PlayerScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_player_score",
			Help:    "Final player scores",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	// Traffic metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total requests routed by outcome",
		},
		[]string{"status"},
	)

	Uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_uptime_ratio",
			Help: "Most recent uptime ratio (successful / total requests)",
		},
	)

	// Failure metrics
	CascadeChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cascade_checks_total",
			Help: "Total cascade checks rolled",
		},
	)

	CascadeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cascade_failures_total",
			Help: "Total cascade failures propagated",
		},
	)

	ChaosEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_chaos_events_total",
			Help: "Total chaos events by kind",
		},
		[]string{"event"},
	)

	Entropy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_entropy",
			Help: "Current system entropy",
		},
	)

	// Action metrics
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_actions_total",
			Help: "Total player actions executed by type",
		},
		[]string{"type"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(GamesStarted)
	prometheus.MustRegister(GamesCompleted)
	prometheus.MustRegister(GameRounds)
	prometheus.MustRegister(PlayerScore)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(Uptime)
	prometheus.MustRegister(CascadeChecks)
	prometheus.MustRegister(CascadeFailures)
	prometheus.MustRegister(ChaosEvents)
	prometheus.MustRegister(Entropy)
	prometheus.MustRegister(ActionsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
