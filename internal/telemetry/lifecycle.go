package telemetry

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/go2_telemetry/internal/lowstate"
)

// SampleSource is the subscription handle the run loop drains. Read is
// non-blocking: ok is false when no new sample has arrived yet.
type SampleSource interface {
	Read() (*lowstate.LowState, bool, error)
	Close() error
}

// BindFunc binds to the external transport and returns the subscription.
type BindFunc func() (SampleSource, error)

const (
	// DefaultIdleSleep bounds the poll latency when no data is pending
	// without busy-spinning.
	DefaultIdleSleep = time.Millisecond
	// DefaultErrorBackoff throttles the loop after an unexpected
	// transport failure.
	DefaultErrorBackoff = 100 * time.Millisecond
)

// LifecycleOptions wires a Lifecycle. Bind and Processor are required;
// Emit may be nil to discard reports; zero durations use the defaults.
type LifecycleOptions struct {
	Bind         BindFunc
	Processor    *Processor
	Emit         func(*Report)
	IdleSleep    time.Duration
	ErrorBackoff time.Duration
}

// Lifecycle owns the run/stop state machine around a subscription. A
// Lifecycle is single-use: Start binds and runs the poll loop until Stop,
// and a second Start returns an error. A Start that fails to bind does not
// count as a use; the caller may retry it. Stop is idempotent and safe to call
// from a signal-handling goroutine while the loop is mid-iteration; the
// loop observes the flag once per iteration and exits cooperatively.
type Lifecycle struct {
	bind         BindFunc
	proc         *Processor
	emit         func(*Report)
	idleSleep    time.Duration
	errorBackoff time.Duration

	started       atomic.Bool
	running       atomic.Bool
	stopRequested atomic.Bool
}

// NewLifecycle returns a lifecycle in the Stopped state.
func NewLifecycle(opts LifecycleOptions) *Lifecycle {
	if opts.IdleSleep <= 0 {
		opts.IdleSleep = DefaultIdleSleep
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = DefaultErrorBackoff
	}
	return &Lifecycle{
		bind:         opts.Bind,
		proc:         opts.Processor,
		emit:         opts.Emit,
		idleSleep:    opts.IdleSleep,
		errorBackoff: opts.ErrorBackoff,
	}
}

// IsRunning reports whether the poll loop is active.
func (l *Lifecycle) IsRunning() bool { return l.running.Load() }

// Summary describes a finished (or in-flight) run.
type Summary struct {
	Messages uint64
	Elapsed  time.Duration
	AvgRate  float64
}

// Summary is stable across repeated calls once the loop has exited.
func (l *Lifecycle) Summary() Summary {
	return Summary{
		Messages: l.proc.Count(),
		Elapsed:  l.proc.Elapsed(),
		AvgRate:  l.proc.Rate(),
	}
}

// Start binds the subscription and runs the poll loop until Stop. A bind
// failure returns a *ConnectionError and leaves the lifecycle Stopped. Any
// later fault is recovered in-loop: extraction failures skip the sample,
// unexpected read failures back off and retry indefinitely. Start returns
// nil after a clean cooperative shutdown.
func (l *Lifecycle) Start() error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("telemetry: lifecycle already started")
	}

	source, err := l.bind()
	if err != nil {
		// A failed bind leaves no partial state; the caller may retry.
		l.started.Store(false)
		return &ConnectionError{Err: err}
	}

	l.running.Store(true)
	l.proc.MarkStart()

	for !l.stopRequested.Load() {
		sample, ok, err := source.Read()
		if err != nil {
			log.Printf("%v", &TransientReadError{Err: err})
			time.Sleep(l.errorBackoff)
			continue
		}
		if !ok {
			time.Sleep(l.idleSleep)
			continue
		}

		report, err := l.proc.Process(sample)
		if err != nil {
			// One malformed sample must never take the stream down.
			log.Printf("telemetry: skipping sample: %v", err)
			continue
		}
		if l.emit != nil {
			l.emit(report)
		}
	}

	l.running.Store(false)
	l.proc.MarkStop()
	if err := source.Close(); err != nil {
		log.Printf("%v", &ShutdownError{Err: err})
	}

	s := l.Summary()
	log.Printf("telemetry: summary: %d messages in %.1fs (avg %.1f Hz)",
		s.Messages, s.Elapsed.Seconds(), s.AvgRate)
	return nil
}

// Stop requests a cooperative shutdown. It only flips an atomic flag, so it
// is idempotent and safe from any goroutine, including before Start or
// after the loop has already exited.
func (l *Lifecycle) Stop() {
	l.stopRequested.Store(true)
}
