package engine

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/dice"
	"github.com/jwalsh/pipeline-and-peril/pkg/events"
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// ChaosKind names one of the eight global disruption effects.
type ChaosKind string

const (
	ChaosMinorGlitch      ChaosKind = "minor_glitch"
	ChaosMemoryLeak       ChaosKind = "memory_leak"
	ChaosDDoSAttack       ChaosKind = "ddos_attack"
	ChaosConfigError      ChaosKind = "config_error"
	ChaosDiskFull         ChaosKind = "disk_full"
	ChaosNetworkPartition ChaosKind = "network_partition"
	ChaosSecurityBreach   ChaosKind = "security_breach"
	ChaosDatacenterOutage ChaosKind = "datacenter_outage"
)

// chaosTable maps a d8 result directly to its event.
var chaosTable = map[int]struct {
	kind        ChaosKind
	description string
}{
	1: {ChaosMinorGlitch, "Minor network glitch"},
	2: {ChaosMemoryLeak, "Memory leak in random service"},
	3: {ChaosDDoSAttack, "DDoS attack increases all load"},
	4: {ChaosConfigError, "Configuration error affects API gateways"},
	5: {ChaosDiskFull, "Disk full on database services"},
	6: {ChaosNetworkPartition, "Network partition breaks connections"},
	7: {ChaosSecurityBreach, "Security breach requires service restarts"},
	8: {ChaosDatacenterOutage, "Datacenter outage affects multiple services"},
}

// ChaosEvent rolls a d8 to select and apply a global disruption. It is a
// no-op while entropy is below the chaos threshold. Entropy then rises by
// the die result, capped at the configured maximum.
func (g *Game) ChaosEvent() {
	if g.Entropy < g.Config.ChaosThreshold {
		return
	}

	_, roll := g.roll(dice.D8, 1)
	event := chaosTable[roll]

	g.logEvent(events.EventChaosTriggered, map[string]any{
		"type":          string(event.kind),
		"description":   event.description,
		"entropy_level": g.Entropy,
		"chaos_roll":    roll,
	})

	g.applyChaosEffects(event.kind)

	g.Entropy = g.Entropy + roll
	if g.Entropy > g.Config.MaxEntropy {
		g.Entropy = g.Config.MaxEntropy
	}
}

// applyChaosEffects mutates the board for the selected event kind.
// minor_glitch, config_error, and security_breach are log-only: they have
// no board effect.
func (g *Game) applyChaosEffects(kind ChaosKind) {
	switch kind {
	case ChaosDDoSAttack:
		for _, s := range g.servicesSorted() {
			if s.Kind == types.ServiceLoadBalancer || s.Kind == types.ServiceAPIGateway {
				s.Load += 3
			}
		}

	case ChaosMemoryLeak:
		var healthy []*types.Service
		for _, s := range g.servicesSorted() {
			if s.State == types.StateHealthy {
				healthy = append(healthy, s)
			}
		}
		if len(healthy) > 0 {
			victim := healthy[g.rng.Intn(len(healthy))]
			victim.State = types.StateDegraded
			victim.Load += 2
		}

	case ChaosDiskFull:
		for _, s := range g.servicesSorted() {
			if s.Kind == types.ServiceDatabase {
				s.State = types.StateOverloaded
				s.Load += 5
			}
		}

	case ChaosNetworkPartition:
		all := g.servicesSorted()
		if len(all) == 0 {
			return
		}
		breaks := 3
		if len(all) < breaks {
			breaks = len(all)
		}
		for i := 0; i < breaks; i++ {
			svc := all[g.rng.Intn(len(all))]
			conns := svc.ConnectionIDs()
			if len(conns) == 0 {
				continue
			}
			severed := conns[g.rng.Intn(len(conns))]
			svc.Disconnect(severed)
			g.Services[severed].Disconnect(svc.ID)
		}

	case ChaosDatacenterOutage:
		var alive []*types.Service
		for _, s := range g.servicesSorted() {
			if s.State != types.StateFailed {
				alive = append(alive, s)
			}
		}
		outages := 2
		if len(alive) < outages {
			outages = len(alive)
		}
		for _, i := range g.rng.Perm(len(alive))[:outages] {
			alive[i].State = types.StateFailed
		}
	}
}
