// Package loadbalance provides strategies for spreading octet-rpc calls
// across discovered service instances.
//
// Three strategies are implemented:
//   - RoundRobin:      stateless endpoints, equal-capacity instances
//   - WeightedRandom:  heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  payload affinity for caching backends
package loadbalance

import "octet-rpc/registry"

// Balancer selects a target instance before each call.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called on every RPC call — must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
