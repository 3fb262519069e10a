package driver

import (
	"bytes"
	"fmt"
	"sync"
)

// Transport is the minimal collaborator contract from spec.md §6: send a
// chunk of bytes, returning false iff it could not be queued. Delivery of
// inbound bytes to the driver happens out of band, via repeated calls to
// (*Driver).HandleData made by the transport (or by a test) — the driver
// never reads from the transport directly.
type Transport interface {
	Send(data []byte) bool
}

// New constructs a driver for kind, bound to transport. It returns
// ErrUnsupportedDeviceKind for a kind this package does not implement, in
// which case no driver is constructed (spec.md §4.6 point 5).
func New(kind Kind, transport Transport) (*Driver, error) {
	switch kind {
	case KindJunos, KindIOSXR:
	default:
		return nil, ErrUnsupportedDeviceKind
	}
	return &Driver{
		kind:      kind,
		spec:      specFor(kind),
		transport: transport,
		state:     StateInitializing,
	}, nil
}

// Driver is one per live session, per spec.md §3. All exported methods are
// safe to call from any goroutine; internally they run to completion under
// mu, realizing the single-threaded cooperative actor of spec.md §5 via a
// per-driver lock rather than a dedicated goroutine mailbox — both are
// permitted by spec.md §5 and observably equivalent. Callbacks and the
// transition hook are queued in d.deferred and only invoked after mu is
// released, so a callback that turns around and issues the next operation
// on this same driver never deadlocks against its own completion.
type Driver struct {
	mu sync.Mutex

	kind      Kind
	spec      vendorSpec
	transport Transport

	state State

	inputBuffer bytes.Buffer
	sessionLog  bytes.Buffer

	currentCommand string
	pending        pendingOp

	configQueue   []string
	rollbackCount int

	// onTransition, if set, is invoked after every state change, outside
	// the lock. Used by the client facade (SPEC_FULL.md §6.4) to mirror
	// state into the audit/state-cache layers without the driver
	// depending on either.
	onTransition func(from, to State)

	deferred []func()
}

// OnTransition registers a hook invoked after every state change. It is
// not part of the core contract in spec.md and exists solely so that
// collaborators outside this package can observe transitions without the
// driver depending on them; intended to be called once, before Initialize.
func (d *Driver) OnTransition(fn func(from, to State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTransition = fn
}

// GetState is a pure observer, safe in any state.
func (d *Driver) GetState() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsReady is a pure observer, safe in any state.
func (d *Driver) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == StateReady
}

// GetDeviceInfo is a pure observer, safe in any state.
func (d *Driver) GetDeviceInfo() DeviceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spec.info
}

// run executes body under mu, then invokes everything body queued onto
// d.deferred (callback fires, transition hook) after releasing the lock.
func (d *Driver) run(body func()) {
	d.mu.Lock()
	body()
	toRun := d.deferred
	d.deferred = nil
	d.mu.Unlock()

	for _, fn := range toRun {
		fn()
	}
}

// Initialize sends the vendor's session-setup commands and moves the
// driver straight to READY, per spec.md §4.5: the driver does not wait for
// prompts between init commands, and their eventual responses are
// discarded by the first prompt seen by the next operation.
func (d *Driver) Initialize() error {
	var initErr error
	d.run(func() {
		for _, cmd := range d.spec.initCommands {
			if !d.transport.Send([]byte(cmd + "\n")) {
				d.transitionTo(StateError)
				initErr = errDisconnected
				return
			}
		}
		d.transitionTo(StateReady)
	})
	return initErr
}

// ExecuteCommand implements spec.md §4.1. Pre: state == READY.
func (d *Driver) ExecuteCommand(cb CommandCallback, command string) {
	d.run(func() {
		if d.state != StateReady {
			d.defer_(func() { cb(notReadyError(d.state), "") })
			return
		}

		d.currentCommand = command
		d.pending = newCommandOp(cb)
		d.inputBuffer.Reset()

		if !d.transport.Send([]byte(command + "\n")) {
			d.failAll(errDisconnected)
			d.transitionTo(StateDisconnected)
			return
		}
		d.transitionTo(StateExecutingCommand)
	})
}

// ConfigureAndCommit implements spec.md §4.1. Pre: state == READY. An empty
// config_list is valid: the driver still enters config mode and performs a
// no-op commit.
func (d *Driver) ConfigureAndCommit(cb ConfigCallback, configList []string) {
	d.run(func() {
		if d.state != StateReady {
			d.defer_(func() { cb(notReadyError(d.state), "") })
			return
		}

		d.sessionLog.Reset()
		d.configQueue = append([]string(nil), configList...)
		d.pending = newConfigOp(cb)

		for _, cmd := range d.spec.enterConfigCmds {
			if !d.sendLine(cmd) {
				d.failAll(errDisconnected)
				d.transitionTo(StateDisconnected)
				return
			}
		}
		d.transitionTo(StateEnteringConfig)
	})
}

// RollbackConfiguration implements spec.md §4.1. Pre: state == READY,
// commits_back >= 1.
func (d *Driver) RollbackConfiguration(cb ConfigCallback, commitsBack int) {
	d.run(func() {
		if commitsBack < 1 {
			d.defer_(func() { cb(fmt.Errorf("%w: commits_back must be >= 1", ErrInvalidArgument), "") })
			return
		}
		if d.state != StateReady {
			d.defer_(func() { cb(notReadyError(d.state), "") })
			return
		}

		d.sessionLog.Reset()
		d.rollbackCount = commitsBack
		d.pending = newConfigOp(cb)

		for _, cmd := range d.spec.rollbackNCmds(commitsBack) {
			if !d.sendLine(cmd) {
				d.failAll(errDisconnected)
				d.transitionTo(StateDisconnected)
				return
			}
		}
		d.transitionTo(StateRollingBack)
	})
}

// HandleData is invoked by the transport for each inbound chunk (spec.md
// §4.1). It tolerates prompts split across calls (input_buffer accumulates
// across calls) and multiple prompts within one chunk (the step loop below
// re-scans after every consumed prompt).
func (d *Driver) HandleData(data []byte) {
	d.run(func() {
		d.inputBuffer.Write(data)
		if d.inMultiStepState() {
			appendCapped(&d.sessionLog, data)
		}

		for d.spec.prompts.containsPrompt(d.inputBuffer.String()) {
			if !d.step() {
				return
			}
		}
	})
}

// Disconnect signals a transport failure, per spec.md §4.6 point 4: any
// pending callback fails with a disconnection error and the driver moves
// to DISCONNECTED.
func (d *Driver) Disconnect() {
	d.run(func() {
		d.failAll(errDisconnected)
		d.transitionTo(StateDisconnected)
	})
}

// Reconnect moves a DISCONNECTED driver back to INITIALIZING so the
// enclosing client can retry Initialize (spec.md §3's lifecycle note).
func (d *Driver) Reconnect() error {
	var err error
	d.run(func() {
		if d.state != StateDisconnected {
			err = notReadyError(d.state)
			return
		}
		d.transitionTo(StateInitializing)
	})
	return err
}

// defer_ queues fn to run after the current run() call releases mu.
func (d *Driver) defer_(fn func()) {
	d.deferred = append(d.deferred, fn)
}

// step runs one iteration of the prompt-driven step function from
// spec.md §4.2. It returns false if it stopped early (driver moved to
// ERROR/DISCONNECTED and the caller's scan loop should stop).
func (d *Driver) step() bool {
	switch d.state {
	case StateExecutingCommand:
		return d.stepExecutingCommand()
	case StateEnteringConfig:
		return d.stepEnteringConfig()
	case StateApplyingConfig:
		return d.stepApplyingConfig()
	case StateCommitting:
		return d.stepCommitting()
	case StateAbortingConfig:
		return d.stepAbortingConfig()
	case StateRollingBack:
		return d.stepRollingBack()
	default:
		// "In all other states, a detected prompt is discarded ... and
		// state is unchanged." (spec.md §4.2)
		d.inputBuffer.Reset()
		return true
	}
}

func (d *Driver) stepExecutingCommand() bool {
	output := extractOutput(d.inputBuffer.String(), d.currentCommand, d.spec.prompts)
	cb := d.pending.cmdCB
	d.inputBuffer.Reset()
	d.currentCommand = ""
	d.pending = noOp()
	d.transitionTo(StateReady)
	if cb != nil {
		d.defer_(func() { cb(nil, output) })
	}
	return true
}

func (d *Driver) stepEnteringConfig() bool {
	d.inputBuffer.Reset()
	d.transitionTo(StateConfigMode)
	return d.advanceConfigQueueOrCommit(StateApplyingConfig)
}

func (d *Driver) stepApplyingConfig() bool {
	d.inputBuffer.Reset()
	return d.advanceConfigQueueOrCommit(StateApplyingConfig)
}

// advanceConfigQueueOrCommit pops and sends the next queued config command
// (landing in toStateIfQueued), or sends the commit commands and moves to
// COMMITTING if the queue is empty. Shared by ENTERING_CONFIG and
// APPLYING_CONFIG per spec.md §4.2.
func (d *Driver) advanceConfigQueueOrCommit(toStateIfQueued State) bool {
	if len(d.configQueue) > 0 {
		cmd := d.configQueue[0]
		d.configQueue = d.configQueue[1:]
		if !d.sendLine(cmd) {
			d.failAll(errDisconnected)
			d.transitionTo(StateDisconnected)
			return false
		}
		d.transitionTo(toStateIfQueued)
		return true
	}

	for _, cmd := range d.spec.commitCmds {
		if !d.sendLine(cmd) {
			d.failAll(errDisconnected)
			d.transitionTo(StateDisconnected)
			return false
		}
	}
	d.transitionTo(StateCommitting)
	return true
}

func (d *Driver) stepCommitting() bool {
	if d.spec.commitFailed(d.inputBuffer.String()) {
		d.inputBuffer.Reset()
		for _, cmd := range d.spec.abortCmds {
			if !d.sendLine(cmd) {
				d.failAll(errDisconnected)
				d.transitionTo(StateDisconnected)
				return false
			}
		}
		d.transitionTo(StateAbortingConfig)
		return true
	}

	d.inputBuffer.Reset()
	cb := d.pending.cfgCB
	log := d.sessionLog.String()
	d.pending = noOp()
	d.transitionTo(StateReady)
	if cb != nil {
		d.defer_(func() { cb(nil, log) })
	}
	return true
}

func (d *Driver) stepAbortingConfig() bool {
	d.inputBuffer.Reset()
	cb := d.pending.cfgCB
	log := d.sessionLog.String()
	d.pending = noOp()
	d.transitionTo(StateReady)
	if cb != nil {
		d.defer_(func() { cb(errCommitFailed, log) })
	}
	return true
}

func (d *Driver) stepRollingBack() bool {
	d.inputBuffer.Reset()
	cb := d.pending.cfgCB
	log := d.sessionLog.String()
	d.pending = noOp()
	d.transitionTo(StateReady)
	if cb != nil {
		d.defer_(func() { cb(nil, log) })
	}
	return true
}

// sendLine sends cmd+"\n" through the transport. The device's own echo
// of this same line arrives moments later through HandleData, which is
// session_log's only writer (spec.md §4.1); sendLine does not append to
// it itself, or every config/commit/abort command would be logged twice.
func (d *Driver) sendLine(cmd string) bool {
	return d.transport.Send([]byte(cmd + "\n"))
}

func (d *Driver) inMultiStepState() bool {
	switch d.state {
	case StateEnteringConfig, StateConfigMode, StateApplyingConfig,
		StateCommitting, StateAbortingConfig, StateRollingBack:
		return true
	default:
		return false
	}
}

// failAll collapses any pending callback with err, per spec.md §4.6/§7:
// used on transport failure and on invalid-transition collapse. Fields are
// cleared before the callback sees control (invariant 7 in spec.md §3).
func (d *Driver) failAll(err error) {
	p := d.pending
	log := d.sessionLog.String()
	d.pending = noOp()
	d.configQueue = nil
	d.currentCommand = ""
	d.inputBuffer.Reset()

	switch {
	case p.isCommand():
		d.defer_(func() { p.cmdCB(err, "") })
	case p.isConfig():
		d.defer_(func() { p.cfgCB(err, log) })
	}
}

// transitionTo validates the move against the table in spec.md §4.2. An
// invalid move is recorded and collapses to ERROR with any pending
// callback failed, per spec.md §4.2's closing paragraph and §7 point 2.
func (d *Driver) transitionTo(next State) {
	from := d.state

	if from == next {
		d.state = next
		return
	}

	if !IsValidTransition(from, next) && next != StateError {
		// The attempted move itself isn't in the table: force ERROR and
		// fail any in-flight callback, recording the offending move.
		d.state = StateError
		d.notifyTransition(from, StateError)
		d.failAll(invalidTransitionError(from, next))
		return
	}

	d.state = next
	d.notifyTransition(from, next)
}

func (d *Driver) notifyTransition(from, to State) {
	if d.onTransition != nil {
		d.defer_(func() { d.onTransition(from, to) })
	}
}
