package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jwalsh/pipeline-and-peril/pkg/ai"
	"github.com/jwalsh/pipeline-and-peril/pkg/engine"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/log"
	"github.com/jwalsh/pipeline-and-peril/pkg/metrics"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// gameSession pairs a game with its AI manager. The engine is not safe for
// concurrent use, so every handler takes the session lock.
type gameSession struct {
	mu      sync.Mutex
	game    *engine.Game
	manager *ai.Manager
}

// Server exposes games over HTTP and streams their events over WebSocket.
type Server struct {
	router chi.Router
	broker *events.Broker
	hub    *Hub

	mu    sync.RWMutex
	games map[string]*gameSession
}

// NewServer creates the HTTP server around the given broker. The broker
// feeds both the metrics collector and the WebSocket hub.
func NewServer(broker *events.Broker) *Server {
	s := &Server{
		broker: broker,
		hub:    NewHub(broker),
		games:  make(map[string]*gameSession),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Route("/api", func(r chi.Router) {
		r.Post("/games", s.createGame)
		r.Get("/games/{id}", s.getGame)
		r.Get("/games/{id}/actions/{player}", s.getLegalActions)
		r.Post("/games/{id}/actions", s.executeAction)
		r.Post("/games/{id}/advance", s.advancePhase)
		r.Post("/games/{id}/ai-turn", s.aiTurn)
	})

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", s.hub.ServeWs)

	s.router = r
	return s
}

// Router returns the HTTP handler for mounting or serving.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start launches the hub's broadcast loop.
func (s *Server) Start() {
	s.hub.Start()
}

// Stop shuts down the hub.
func (s *Server) Stop() {
	s.hub.Stop()
}

type createGameRequest struct {
	Players    int               `json:"players"`
	Seed       *int64            `json:"seed,omitempty"`
	Strategies []types.Strategy  `json:"strategies,omitempty"`
	Config     *types.GameConfig `json:"config,omitempty"`
}

type createGameResponse struct {
	GameID string          `json:"game_id"`
	State  engine.Snapshot `json:"state"`
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Players < 1 || req.Players > 4 {
		respondError(w, http.StatusBadRequest, "players must be 1-4")
		return
	}

	cfg := types.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	gameID := uuid.New().String()
	g := engine.New(cfg, req.Players, seed,
		engine.WithGameID(gameID),
		engine.WithBroker(s.broker),
	)

	strategies := make([]types.Strategy, req.Players)
	for i := range strategies {
		if i < len(req.Strategies) {
			strategies[i] = req.Strategies[i]
		} else {
			strategies[i] = types.Strategies[i%len(types.Strategies)]
		}
	}

	s.mu.Lock()
	s.games[gameID] = &gameSession{
		game:    g,
		manager: ai.NewManager(strategies, seed),
	}
	s.mu.Unlock()

	logger := log.WithGame(gameID)
	logger.Info().
		Int("players", req.Players).
		Int64("seed", seed).
		Msg("Game created")

	respondJSON(w, http.StatusCreated, createGameResponse{
		GameID: gameID,
		State:  g.Snapshot(),
	})
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	session.mu.Lock()
	snapshot := session.game.Snapshot()
	session.mu.Unlock()

	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) getLegalActions(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	playerID, err := strconv.Atoi(chi.URLParam(r, "player"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	session.mu.Lock()
	actions := session.game.LegalActions(playerID)
	session.mu.Unlock()

	if actions == nil {
		actions = []types.Action{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"player_id": playerID,
		"actions":   actions,
	})
}

type executeActionRequest struct {
	PlayerID int          `json:"player_id"`
	Action   types.Action `json:"action"`
}

func (s *Server) executeAction(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	var req executeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	success := session.game.ExecuteAction(req.PlayerID, req.Action)
	snapshot := session.game.Snapshot()
	session.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"success": success,
		"state":   snapshot,
	})
}

func (s *Server) advancePhase(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	session.mu.Lock()
	phase := session.game.AdvancePhase()
	over := session.game.IsGameOver()
	if over {
		session.game.Finish()
	}
	snapshot := session.game.Snapshot()
	session.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"phase":     phase,
		"game_over": over,
		"state":     snapshot,
	})
}

func (s *Server) aiTurn(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	session.mu.Lock()
	if session.game.Phase != types.PhaseAction {
		session.mu.Unlock()
		respondError(w, http.StatusConflict, "game is not in the action phase")
		return
	}
	taken := session.manager.PlayActionPhase(session.game)
	snapshot := session.game.Snapshot()
	session.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"actions_taken": taken,
		"state":         snapshot,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	active := len(s.games)
	s.mu.RUnlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_games": active,
	})
}

func (s *Server) session(id string) (*gameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.games[id]
	return session, ok
}

// instrument records request counts and latencies per method.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(time.Since(started).Seconds())
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
