package loadbalance

import (
	"fmt"
	"math/rand"

	"octet-rpc/registry"
)

// WeightedRandomBalancer picks instances with probability proportional to
// their registered weight.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances available")
	}

	totalWeight := 0
	for _, inst := range instances {
		totalWeight += inst.Weight
	}
	if totalWeight <= 0 {
		return nil, fmt.Errorf("total weight must be positive, got %d", totalWeight)
	}

	// Walk the list subtracting weights until the draw lands in a bucket.
	r := rand.Intn(totalWeight)
	for i := range instances {
		r -= instances[i].Weight
		if r < 0 {
			return &instances[i], nil
		}
	}

	return nil, fmt.Errorf("unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
