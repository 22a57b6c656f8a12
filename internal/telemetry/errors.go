package telemetry

import "fmt"

// ConnectionError reports a failed bind to the sample transport at start.
// It aborts the run; nothing else in this package does.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("telemetry: connect: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransientReadError wraps an unexpected transport failure during the run
// loop. The loop logs it, backs off, and keeps consuming.
type TransientReadError struct {
	Err error
}

func (e *TransientReadError) Error() string {
	return fmt.Sprintf("telemetry: transport read: %v", e.Err)
}

func (e *TransientReadError) Unwrap() error { return e.Err }

// ShutdownError reports a failure releasing the subscription during stop.
// It is logged and never re-raised; the summary still prints.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("telemetry: release subscription: %v", e.Err)
}

func (e *ShutdownError) Unwrap() error { return e.Err }
