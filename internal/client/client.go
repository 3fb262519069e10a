// Package client adapts the callback-based driver.Driver into a
// context-aware blocking API for HTTP handlers and other synchronous
// callers, per SPEC_FULL.md §6.4. The driver's own contract is unchanged;
// this package is sugar layered on top of it.
package client

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/orchestron-orchestrator/netcli/internal/audit"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/driver"
	"github.com/orchestron-orchestrator/netcli/internal/model"
	"github.com/orchestron-orchestrator/netcli/internal/statecache"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
	"github.com/orchestron-orchestrator/netcli/pkg/transport"
)

// Client owns one Transport and one driver.Driver for the lifetime of a
// single device connection.
type Client struct {
	target   config.DeviceConfig
	sshCfg   config.SSHConfig
	drv      *driver.Driver
	closer   io.Closer
	audit    *audit.Service
	cache    statecache.Publisher
	readyCh  chan error
	closedCh chan struct{}
}

// NewConnected builds a Client around a driver.Driver that has already been
// constructed and wired to its transport, skipping Connect's own dial and
// ready-handshake wait. Exported so handler-level tests can exercise the
// blocking API against a driver wired to transport.Capture instead of a
// real SSH session.
func NewConnected(target config.DeviceConfig, drv *driver.Driver, closer io.Closer, auditSvc *audit.Service, cache statecache.Publisher) *Client {
	c := &Client{
		target:   target,
		drv:      drv,
		closer:   closer,
		audit:    auditSvc,
		cache:    cache,
		readyCh:  make(chan error, 1),
		closedCh: make(chan struct{}),
	}
	drv.OnTransition(c.onTransition)
	return c
}

func kindFor(name string) (driver.Kind, error) {
	switch name {
	case "junos":
		return driver.KindJunos, nil
	case "iosxr":
		return driver.KindIOSXR, nil
	default:
		return 0, driver.ErrUnsupportedDeviceKind
	}
}

// Connect starts the SSH transport for target, constructs its driver, and
// blocks until the driver reaches READY or ctx/readyTimeout expires.
func Connect(ctx context.Context, target config.DeviceConfig, sshCfg config.SSHConfig, auditSvc *audit.Service, cache statecache.Publisher, readyTimeout time.Duration) (*Client, error) {
	kind, err := kindFor(target.Kind)
	if err != nil {
		return nil, err
	}

	c := &Client{
		target:   target,
		sshCfg:   sshCfg,
		audit:    auditSvc,
		cache:    cache,
		readyCh:  make(chan error, 1),
		closedCh: make(chan struct{}),
	}

	// drvRef is published after the session is up; the read loop that
	// transport.Dial starts immediately may deliver bytes before the
	// driver exists, so HandleData is dispatched through this atomic
	// pointer rather than captured directly.
	var drvRef atomic.Pointer[driver.Driver]
	sshTransport, err := transport.Dial(ctx, target, sshCfg, func(b []byte) {
		if d := drvRef.Load(); d != nil {
			d.HandleData(b)
		}
	}, c.onTransportClosed)
	if err != nil {
		return nil, fmt.Errorf("client: dial failed: %w", err)
	}
	c.closer = sshTransport

	drv, err := driver.New(kind, sshTransport)
	if err != nil {
		_ = sshTransport.Close()
		return nil, err
	}
	c.drv = drv
	drv.OnTransition(c.onTransition)
	drvRef.Store(drv)

	if err := drv.Initialize(); err != nil {
		return nil, fmt.Errorf("client: initialize failed: %w", err)
	}

	select {
	case err := <-c.readyCh:
		return c, err
	case <-time.After(readyTimeout):
		return nil, fmt.Errorf("client: timed out waiting for device to become ready")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) onTransition(from, to driver.State) {
	if c.cache != nil {
		_ = c.cache.Publish(context.Background(), statecache.Snapshot{
			DeviceKind: c.target.Kind,
			Host:       c.target.Host,
			State:      to.String(),
			UpdatedAt:  time.Now(),
		})
	}

	if to == driver.StateReady && from == driver.StateInitializing {
		select {
		case c.readyCh <- nil:
		default:
		}
	}
	if to == driver.StateDisconnected {
		select {
		case c.closedCh <- struct{}{}:
		default:
		}
	}
}

func (c *Client) onTransportClosed(err error) {
	c.drv.Disconnect()
}

// ExecuteCommand adapts driver.ExecuteCommand into a blocking call.
func (c *Client) ExecuteCommand(ctx context.Context, command string) (string, error) {
	started := time.Now()
	type result struct {
		response string
		err      error
	}
	resCh := make(chan result, 1)

	c.drv.ExecuteCommand(func(err error, response string) {
		resCh <- result{response: response, err: err}
	}, command)

	select {
	case r := <-resCh:
		c.recordAudit(model.OpExecuteCommand, r.err == nil, r.err, r.response, started)
		return r.response, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ConfigureAndCommit adapts driver.ConfigureAndCommit into a blocking
// call.
func (c *Client) ConfigureAndCommit(ctx context.Context, commands []string) (string, error) {
	return c.runConfigOp(ctx, model.OpConfigureAndCommit, func(cb driver.ConfigCallback) {
		c.drv.ConfigureAndCommit(cb, commands)
	})
}

// RollbackConfiguration adapts driver.RollbackConfiguration into a
// blocking call.
func (c *Client) RollbackConfiguration(ctx context.Context, commitsBack int) (string, error) {
	return c.runConfigOp(ctx, model.OpRollbackConfiguration, func(cb driver.ConfigCallback) {
		c.drv.RollbackConfiguration(cb, commitsBack)
	})
}

func (c *Client) runConfigOp(ctx context.Context, op model.Operation, call func(driver.ConfigCallback)) (string, error) {
	started := time.Now()
	type result struct {
		log string
		err error
	}
	resCh := make(chan result, 1)

	call(func(err error, sessionLog string) {
		resCh <- result{log: sessionLog, err: err}
	})

	select {
	case r := <-resCh:
		c.recordAudit(op, r.err == nil, r.err, r.log, started)
		return r.log, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) recordAudit(op model.Operation, success bool, err error, log string, started time.Time) {
	if c.audit == nil {
		return
	}
	rec := audit.Record{
		DeviceKind: c.target.Kind,
		Host:       c.target.Host,
		Operation:  op,
		Success:    success,
		Err:        err,
		SessionLog: log,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if werr := c.audit.Write(rec); werr != nil {
		logger.Device(c.target.Kind, c.target.Host).WithError(werr).Error("client: audit write failed")
	}
}

// State returns the current driver state and device info.
func (c *Client) State() (driver.State, driver.DeviceInfo) {
	return c.drv.GetState(), c.drv.GetDeviceInfo()
}

// Disconnect closes the transport and moves the driver to DISCONNECTED,
// failing any pending callback. Closing the transport does not trigger its
// onClose notification, so the driver is told directly.
func (c *Client) Disconnect(ctx context.Context) {
	if c.closer != nil {
		_ = c.closer.Close()
	}
	c.drv.Disconnect()
}
