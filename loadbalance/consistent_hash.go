package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"octet-rpc/registry"
)

// ConsistentHashBalancer maps keys to instances on a hash ring. The same key
// always lands on the same instance until the ring changes, which gives
// request affinity when backends keep per-payload caches.
//
// Each real instance appears as 100 virtual nodes on the ring; without them a
// handful of instances would cluster and the load would skew.
type ConsistentHashBalancer struct {
	replicas int
	ring     []uint32                             // sorted hash values
	nodes    map[uint32]*registry.ServiceInstance // hash value → instance
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per
// instance.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]*registry.ServiceInstance),
	}
}

// Add places an instance onto the ring. Virtual node i hashes "{addr}#{i}"
// so replicas of one instance spread over the whole ring.
func (b *ConsistentHashBalancer) Add(instance *registry.ServiceInstance) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", instance.Addr, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	// Keep the ring sorted for binary search in PickKey
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// PickKey finds the instance responsible for key: hash it, binary-search the
// first node at or past the hash, wrap to the start of the ring if none.
//
// Consistent hashing is key-based, so this does not implement the Balancer
// interface; callers hash the request payload (or any stable key) themselves.
func (b *ConsistentHashBalancer) PickKey(key []byte) (*registry.ServiceInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("no instances available")
	}

	hash := crc32.ChecksumIEEE(key)
	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0 // wrap around
	}

	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
