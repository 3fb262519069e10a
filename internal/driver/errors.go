package driver

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDeviceKind is returned by New for a device kind the driver
// factory does not recognize (spec.md §4.6 point 5 / §7 point 5).
var ErrUnsupportedDeviceKind = errors.New("unsupported device kind")

// ErrInvalidArgument covers synchronous precondition failures on arguments
// (empty config_list is not one of these — it is valid per spec.md §4.1;
// commits_back < 1 is).
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotReady is wrapped into every precondition-violation error returned
// by notReadyError, so callers outside this package can distinguish "not
// ready" from other failure categories with errors.Is/errors.As without
// string matching.
var ErrNotReady = errors.New("driver not ready")

// notReadyError reports a precondition violation: an operation was
// requested while state != READY. Per spec.md §4.1/§7, the message names
// the current state.
func notReadyError(current State) error {
	return fmt.Errorf("%w - current state: %s", ErrNotReady, current)
}

// AsNotReadyError reports whether err is (or wraps) a precondition
// violation raised by notReadyError.
func AsNotReadyError(err error) (error, bool) {
	if err != nil && errors.Is(err, ErrNotReady) {
		return err, true
	}
	return nil, false
}

// invalidTransitionError is used to fail any in-flight callback when the
// step function attempts a move not in the transition table (spec.md
// §4.2, §7 point 2). It is not written to the session log.
func invalidTransitionError(from, to State) error {
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}

// errCommitFailed is the specific error surfaced to the config callback
// after an automatic abort sequence completes (spec.md §4.1, §4.6 point 3,
// §8's required substring "automatically rolled back").
var errCommitFailed = errors.New("configuration commit failed but was automatically rolled back")

// errDisconnected is delivered to any pending callback when the
// transport signals failure (spec.md §4.6 point 4).
var errDisconnected = errors.New("transport disconnected")
