package catalog

import (
	"github.com/jwalsh/pipeline-and-peril/pkg/types"
)

// Entry holds the static properties of one service kind.
type Entry struct {
	CPUCost     int
	MemoryCost  int
	StorageCost int
	Capacity    int
	BaseLatency int
}

// TotalCost returns the summed resource cost of the entry.
func (e Entry) TotalCost() int {
	return e.CPUCost + e.MemoryCost + e.StorageCost
}

// entries is the fixed catalog. Capacity is the maximum sustainable load;
// BaseLatency is informational only.
var entries = map[types.ServiceKind]Entry{
	types.ServiceCompute:      {CPUCost: 2, MemoryCost: 2, StorageCost: 1, Capacity: 5, BaseLatency: 10},
	types.ServiceDatabase:     {CPUCost: 1, MemoryCost: 2, StorageCost: 3, Capacity: 3, BaseLatency: 50},
	types.ServiceCache:        {CPUCost: 1, MemoryCost: 3, StorageCost: 1, Capacity: 8, BaseLatency: 5},
	types.ServiceQueue:        {CPUCost: 1, MemoryCost: 1, StorageCost: 2, Capacity: 6, BaseLatency: 15},
	types.ServiceLoadBalancer: {CPUCost: 2, MemoryCost: 1, StorageCost: 1, Capacity: 10, BaseLatency: 8},
	types.ServiceAPIGateway:   {CPUCost: 1, MemoryCost: 1, StorageCost: 1, Capacity: 7, BaseLatency: 12},
}

// Lookup returns the catalog entry for kind. Unknown kinds return the
// zero Entry and ok=false; callers treat that as an unaffordable service.
func Lookup(kind types.ServiceKind) (Entry, bool) {
	e, ok := entries[kind]
	return e, ok
}

// Capacity returns the maximum sustainable load for kind, or 0 if unknown.
func Capacity(kind types.ServiceKind) int {
	return entries[kind].Capacity
}
