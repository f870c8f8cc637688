package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ServiceKind identifies the role a service plays in the network.
type ServiceKind string

const (
	ServiceCompute      ServiceKind = "compute"
	ServiceDatabase     ServiceKind = "database"
	ServiceCache        ServiceKind = "cache"
	ServiceQueue        ServiceKind = "queue"
	ServiceLoadBalancer ServiceKind = "load_balancer"
	ServiceAPIGateway   ServiceKind = "api_gateway"
)

// ServiceKinds lists every deployable kind in a stable order.
var ServiceKinds = []ServiceKind{
	ServiceCompute,
	ServiceDatabase,
	ServiceCache,
	ServiceQueue,
	ServiceLoadBalancer,
	ServiceAPIGateway,
}

// ServiceState represents the current operational state of a service.
type ServiceState string

const (
	StateHealthy    ServiceState = "healthy"
	StateDegraded   ServiceState = "degraded"
	StateOverloaded ServiceState = "overloaded"
	StateFailed     ServiceState = "failed"
	StateCascading  ServiceState = "cascading"
)

// Phase is one step of the round state machine.
type Phase string

const (
	PhaseTraffic    Phase = "traffic"
	PhaseAction     Phase = "action"
	PhaseResolution Phase = "resolution"
	PhaseChaos      Phase = "chaos"
)

// Strategy selects the behavior profile of an autonomous player.
type Strategy string

const (
	StrategyAggressive Strategy = "aggressive"
	StrategyDefensive  Strategy = "defensive"
	StrategyBalanced   Strategy = "balanced"
	StrategyRandom     Strategy = "random"
)

// Strategies lists the built-in strategy profiles in assignment order.
var Strategies = []Strategy{
	StrategyAggressive,
	StrategyDefensive,
	StrategyBalanced,
	StrategyRandom,
}

// Position is a (row, col) cell on the hex board. It marshals as a
// two-element [row, col] JSON array to match the wire action encoding.
type Position struct {
	Row int
	Col int
}

// MarshalJSON encodes the position as [row, col].
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

// UnmarshalJSON decodes a [row, col] array.
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("position must be a [row, col] array: %w", err)
	}
	p.Row, p.Col = pair[0], pair[1]
	return nil
}

// Service is a deployed network component occupying one board cell.
type Service struct {
	ID          int
	Kind        ServiceKind
	Position    Position
	State       ServiceState
	Load        int
	Bugs        int
	Connections map[int]struct{}
	Owner       int
}

// Connect records a bidirectional edge endpoint on this service.
func (s *Service) Connect(id int) {
	if s.Connections == nil {
		s.Connections = make(map[int]struct{})
	}
	s.Connections[id] = struct{}{}
}

// Disconnect removes an edge endpoint if present.
func (s *Service) Disconnect(id int) {
	delete(s.Connections, id)
}

// Connected reports whether this service has an edge to id.
func (s *Service) Connected(id int) bool {
	_, ok := s.Connections[id]
	return ok
}

// ConnectionIDs returns the connected service ids in ascending order.
// Deterministic iteration over the connectivity graph depends on this.
func (s *Service) ConnectionIDs() []int {
	ids := make([]int, 0, len(s.Connections))
	for id := range s.Connections {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MaxResource caps each player resource pool on gain.
const MaxResource = 50

// StartingResource is the initial value of each resource pool.
const StartingResource = 20

// DefaultActions is the per-round action budget for every player.
const DefaultActions = 3

// Player holds one player's resources, score, and ownership set.
type Player struct {
	ID               int
	Name             string
	Strategy         Strategy
	CPU              int
	Memory           int
	Storage          int
	Score            int
	ServicesOwned    map[int]struct{}
	ActionsRemaining int
}

// NewPlayer creates a player with the default resource pools and budget.
func NewPlayer(id int, strategy Strategy) *Player {
	return &Player{
		ID:               id,
		Name:             fmt.Sprintf("player_%d", id),
		Strategy:         strategy,
		CPU:              StartingResource,
		Memory:           StartingResource,
		Storage:          StartingResource,
		ServicesOwned:    make(map[int]struct{}),
		ActionsRemaining: DefaultActions,
	}
}

// Gain adds resources, capping each pool at MaxResource.
func (p *Player) Gain(cpu, memory, storage int) {
	p.CPU = minInt(MaxResource, p.CPU+cpu)
	p.Memory = minInt(MaxResource, p.Memory+memory)
	p.Storage = minInt(MaxResource, p.Storage+storage)
}

// Owns reports whether the player owns the service id.
func (p *Player) Owns(serviceID int) bool {
	_, ok := p.ServicesOwned[serviceID]
	return ok
}

// OwnedServiceIDs returns the owned service ids in ascending order.
func (p *Player) OwnedServiceIDs() []int {
	ids := make([]int, 0, len(p.ServicesOwned))
	for id := range p.ServicesOwned {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GameConfig is the immutable per-instance rule set.
type GameConfig struct {
	BoardRows       int     `yaml:"board_rows" json:"board_rows"`
	BoardCols       int     `yaml:"board_cols" json:"board_cols"`
	MaxRounds       int     `yaml:"max_rounds" json:"max_rounds"`
	UptimeTarget    float64 `yaml:"uptime_target" json:"uptime_target"`
	MaxEntropy      int     `yaml:"max_entropy" json:"max_entropy"`
	ChaosThreshold  int     `yaml:"chaos_threshold" json:"chaos_threshold"`
	CooperativeMode bool    `yaml:"cooperative_mode" json:"cooperative_mode"`
}

// DefaultConfig returns the standard 8x6 cooperative rule set.
func DefaultConfig() GameConfig {
	return GameConfig{
		BoardRows:       8,
		BoardCols:       6,
		MaxRounds:       10,
		UptimeTarget:    0.8,
		MaxEntropy:      10,
		ChaosThreshold:  3,
		CooperativeMode: true,
	}
}

// ActionType tags the closed set of player actions.
type ActionType string

const (
	ActionDeploy ActionType = "deploy"
	ActionRepair ActionType = "repair"
	ActionScale  ActionType = "scale"
)

// Action is a tagged player action. Deploy actions carry ServiceKind and
// Position; repair and scale actions carry ServiceID.
type Action struct {
	Type        ActionType  `json:"type"`
	ServiceKind ServiceKind `json:"service_type,omitempty"`
	Position    *Position   `json:"position,omitempty"`
	ServiceID   int         `json:"service_id,omitempty"`
}

// DeployAction builds a deploy action for kind at pos.
func DeployAction(kind ServiceKind, pos Position) Action {
	return Action{Type: ActionDeploy, ServiceKind: kind, Position: &pos}
}

// RepairAction builds a repair action for the service id.
func RepairAction(serviceID int) Action {
	return Action{Type: ActionRepair, ServiceID: serviceID}
}

// ScaleAction builds a scale action for the service id.
func ScaleAction(serviceID int) Action {
	return Action{Type: ActionScale, ServiceID: serviceID}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
