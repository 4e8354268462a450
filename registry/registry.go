package registry

import "context"

// ServiceInstance describes one reachable octet-rpc endpoint.
type ServiceInstance struct {
	Addr    string // "host:port" the instance serves on
	Weight  int    // Weight for load balancing
	Version string
}

// Registry tracks which instances currently serve a named service.
// Clients Discover before each call; servers Register on startup and
// Deregister on shutdown.
type Registry interface {
	Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(ctx context.Context, serviceName string, addr string) error
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)
	Watch(ctx context.Context, serviceName string) <-chan []ServiceInstance
}
