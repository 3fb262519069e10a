package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orchestron-orchestrator/netcli/internal/audit"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/statecache"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// maxConcurrentConnects bounds how many devices ConnectAll dials at once,
// so a large fleet at startup doesn't open hundreds of SSH handshakes in
// the same instant.
const maxConcurrentConnects = 8

// Registry holds one Client per configured device, keyed by the device's
// name. It is the thing the HTTP facade looks up by path parameter.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client

	sshCfg       config.SSHConfig
	audit        *audit.Service
	cache        statecache.Publisher
	readyTimeout time.Duration
}

// NewRegistry builds an empty Registry. Call Connect for each configured
// device target during daemon startup.
func NewRegistry(sshCfg config.SSHConfig, auditSvc *audit.Service, cache statecache.Publisher, readyTimeout time.Duration) *Registry {
	return &Registry{
		clients:      make(map[string]*Client),
		sshCfg:       sshCfg,
		audit:        auditSvc,
		cache:        cache,
		readyTimeout: readyTimeout,
	}
}

// Connect dials target and, on success, registers it under target.Name.
func (r *Registry) Connect(ctx context.Context, target config.DeviceConfig) error {
	c, err := Connect(ctx, target, r.sshCfg, r.audit, r.cache, r.readyTimeout)
	if err != nil {
		return fmt.Errorf("registry: connect %s: %w", target.Name, err)
	}
	r.mu.Lock()
	r.clients[target.Name] = c
	r.mu.Unlock()
	logger.Device(target.Kind, target.Host).WithField("name", target.Name).Info("registry: device connected")
	return nil
}

// ConnectAll dials every target concurrently, bounded by
// maxConcurrentConnects, and returns the first error encountered (other
// targets still in flight are allowed to finish). Used by the daemon
// entrypoint at startup so one slow or unreachable device doesn't hold up
// the rest of the fleet.
func (r *Registry) ConnectAll(ctx context.Context, targets []config.DeviceConfig) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrentConnects)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			return r.Connect(ctx, target)
		})
	}
	return g.Wait()
}

// Register adds an already-built Client to the registry under name,
// overwriting any existing entry. Connect is the normal way a Client gets
// here; Register exists for callers (tests, mainly) that construct a
// Client directly via client.NewConnected instead of dialing.
func (r *Registry) Register(name string, c *Client) {
	r.mu.Lock()
	r.clients[name] = c
	r.mu.Unlock()
}

// Get looks up a connected client by device name.
func (r *Registry) Get(name string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// DisconnectAll tears down every registered client, used on daemon
// shutdown.
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Disconnect(ctx)
	}
}
