package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/go2_telemetry/internal/lowstate"
)

type readEvent struct {
	sample *lowstate.LowState
	ok     bool
	err    error
}

// fakeSource replays a script of read outcomes, then reports idle. drained
// runs once when the script is exhausted, typically to request a stop from
// inside the loop.
type fakeSource struct {
	mu       sync.Mutex
	events   []readEvent
	drained  func()
	notified bool
	closes   int
	closeErr error
}

func (f *fakeSource) Read() (*lowstate.LowState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		if f.drained != nil && !f.notified {
			f.notified = true
			f.drained()
		}
		return nil, false, nil
	}
	e := f.events[0]
	f.events = f.events[1:]
	return e.sample, e.ok, e.err
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.closeErr
}

func validEvent() readEvent {
	temp := 30.0
	return readEvent{
		sample: &lowstate.LowState{
			IMUState: &lowstate.IMUState{
				Quaternion:    []float64{1, 0, 0, 0},
				Gyroscope:     []float64{0, 0, 0},
				Accelerometer: []float64{0, 0, 0.05},
				RPY:           []float64{0, 0, 0},
				Temperature:   &temp,
			},
		},
		ok: true,
	}
}

func newTestLifecycle(src *fakeSource, emit func(*Report)) *Lifecycle {
	return NewLifecycle(LifecycleOptions{
		Bind:         func() (SampleSource, error) { return src, nil },
		Processor:    NewProcessor(ProcessorOptions{}),
		Emit:         emit,
		IdleSleep:    time.Microsecond,
		ErrorBackoff: time.Microsecond,
	})
}

func TestLifecycleProcessesUntilStopped(t *testing.T) {
	src := &fakeSource{events: []readEvent{validEvent(), validEvent(), validEvent()}}

	var reports []*Report
	life := newTestLifecycle(src, func(r *Report) { reports = append(reports, r) })
	src.drained = life.Stop

	require.NoError(t, life.Start())

	assert.Len(t, reports, 3)
	assert.Equal(t, uint64(3), life.Summary().Messages)
	assert.Equal(t, 1, src.closes)
	assert.False(t, life.IsRunning())
}

func TestLifecycleBindFailure(t *testing.T) {
	bindErr := errors.New("broker unreachable")
	life := NewLifecycle(LifecycleOptions{
		Bind:      func() (SampleSource, error) { return nil, bindErr },
		Processor: NewProcessor(ProcessorOptions{}),
	})

	err := life.Start()
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, bindErr)
	assert.False(t, life.IsRunning())
}

func TestLifecycleRetryAfterBindFailure(t *testing.T) {
	src := &fakeSource{events: []readEvent{validEvent()}}
	attempts := 0
	life := NewLifecycle(LifecycleOptions{
		Bind: func() (SampleSource, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("broker unreachable")
			}
			return src, nil
		},
		Processor:    NewProcessor(ProcessorOptions{}),
		IdleSleep:    time.Microsecond,
		ErrorBackoff: time.Microsecond,
	})
	src.drained = life.Stop

	// A failed bind leaves no partial state, so the same lifecycle may
	// retry Start instead of reporting it was already used.
	var connErr *ConnectionError
	require.ErrorAs(t, life.Start(), &connErr)

	require.NoError(t, life.Start())
	assert.Equal(t, uint64(1), life.Summary().Messages)
	assert.Equal(t, 1, src.closes)
}

func TestLifecycleSingleUse(t *testing.T) {
	src := &fakeSource{}
	life := newTestLifecycle(src, nil)
	src.drained = life.Stop

	require.NoError(t, life.Start())
	assert.Error(t, life.Start())
}

func TestLifecycleSkipsMalformedSample(t *testing.T) {
	malformed := validEvent()
	malformed.sample.IMUState.Accelerometer = nil

	src := &fakeSource{events: []readEvent{validEvent(), malformed, validEvent()}}

	var reports []*Report
	life := newTestLifecycle(src, func(r *Report) { reports = append(reports, r) })
	src.drained = life.Stop

	require.NoError(t, life.Start())

	// The malformed sample is skipped, not counted, and not fatal.
	assert.Len(t, reports, 2)
	assert.Equal(t, uint64(2), life.Summary().Messages)
}

func TestLifecycleSurvivesTransientReadErrors(t *testing.T) {
	src := &fakeSource{events: []readEvent{
		validEvent(),
		{err: errors.New("socket hiccup")},
		{err: errors.New("socket hiccup")},
		validEvent(),
	}}

	var reports []*Report
	life := newTestLifecycle(src, func(r *Report) { reports = append(reports, r) })
	src.drained = life.Stop

	require.NoError(t, life.Start())
	assert.Len(t, reports, 2)
}

func TestLifecycleStopIdempotent(t *testing.T) {
	src := &fakeSource{events: []readEvent{validEvent()}}
	life := newTestLifecycle(src, nil)
	src.drained = life.Stop

	require.NoError(t, life.Start())

	first := life.Summary()
	assert.NotPanics(t, func() {
		life.Stop()
		life.Stop()
	})
	assert.Equal(t, first, life.Summary())
	assert.Equal(t, 1, src.closes)

	// The summary is a frozen measurement: it must not drift with the
	// wall clock after the run has ended.
	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, first, life.Summary())
}

func TestLifecycleStopBeforeStart(t *testing.T) {
	life := newTestLifecycle(&fakeSource{}, nil)
	assert.NotPanics(t, life.Stop)
	assert.Zero(t, life.Summary().Messages)

	// A pre-requested stop makes Start bind, notice the flag, and shut
	// down cleanly without processing anything.
	require.NoError(t, life.Start())
}

func TestLifecycleStopFromManyGoroutines(t *testing.T) {
	src := &fakeSource{events: []readEvent{validEvent(), validEvent()}}
	life := newTestLifecycle(src, nil)

	done := make(chan error, 1)
	go func() { done <- life.Start() }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			life.Stop()
		}()
	}
	wg.Wait()

	require.NoError(t, <-done)
	assert.Equal(t, 1, src.closes)
}

func TestLifecycleShutdownErrorStillSummarizes(t *testing.T) {
	src := &fakeSource{
		events:   []readEvent{validEvent()},
		closeErr: errors.New("unsubscribe refused"),
	}
	life := newTestLifecycle(src, nil)
	src.drained = life.Stop

	// The release failure is logged, never returned.
	require.NoError(t, life.Start())
	assert.Equal(t, uint64(1), life.Summary().Messages)
}
