package telemetry

import (
	"time"

	"github.com/relabs-tech/go2_telemetry/internal/lowstate"
	"github.com/relabs-tech/go2_telemetry/internal/stats"
)

// Default motion thresholds, calibrated on a quadruped at rest: a small
// residual accelerometer wobble plus gyro noise stays under these.
const (
	DefaultAccelThreshold = 1.1 // m/s²
	DefaultGyroThreshold  = 0.1 // rad/s
	DefaultWindowSize     = 10
)

// Thresholds classifies a sample as motion when either instantaneous
// magnitude exceeds its limit.
type Thresholds struct {
	Accel float64 // m/s²
	Gyro  float64 // rad/s
}

// ProcessorOptions configures a Processor. Zero values fall back to the
// defaults above; Clock exists for deterministic rate tests.
type ProcessorOptions struct {
	WindowSize int
	Thresholds Thresholds
	Clock      func() time.Time
}

// Processor consumes one lowstate sample per call, maintains the rolling
// windows, and derives the motion metrics. All mutable state is owned by
// the instance, so independent processors can run side by side.
type Processor struct {
	thresholds Thresholds

	accelWin *stats.Window[[]float64]
	gyroWin  *stats.Window[[]float64]
	tempWin  *stats.Window[float64]

	meter *stats.RateMeter
}

// NewProcessor returns a processor with empty windows and an unstarted
// rate meter.
func NewProcessor(opts ProcessorOptions) *Processor {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.Thresholds.Accel == 0 {
		opts.Thresholds.Accel = DefaultAccelThreshold
	}
	if opts.Thresholds.Gyro == 0 {
		opts.Thresholds.Gyro = DefaultGyroThreshold
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Processor{
		thresholds: opts.Thresholds,
		accelWin:   stats.NewWindow[[]float64](opts.WindowSize),
		gyroWin:    stats.NewWindow[[]float64](opts.WindowSize),
		tempWin:    stats.NewWindow[float64](opts.WindowSize),
		meter:      stats.NewRateMeterWithClock(opts.Clock),
	}
}

// MarkStart records the rate measurement origin. The lifecycle calls this
// exactly once, on the Stopped to Running transition.
func (p *Processor) MarkStart() { p.meter.MarkStart() }

// MarkStop freezes the rate measurement when the run ends, so summaries
// read the same values no matter when they are taken.
func (p *Processor) MarkStop() { p.meter.MarkStop() }

// Count returns the number of successfully processed samples.
func (p *Processor) Count() uint64 { return p.meter.Count() }

// Elapsed returns wall clock time since MarkStart.
func (p *Processor) Elapsed() time.Duration { return p.meter.Elapsed() }

// Rate returns the measured sample rate in Hz.
func (p *Processor) Rate() float64 { return p.meter.Rate() }

// Process extracts the IMU reading from one sample, updates the windows
// and counters, and returns the derived report. On an extraction failure
// nothing is mutated and the sample does not count.
func (p *Processor) Process(s *lowstate.LowState) (*Report, error) {
	r, err := lowstate.ExtractReading(s)
	if err != nil {
		return nil, err
	}

	p.accelWin.Push(vec3(r.Accelerometer))
	p.gyroWin.Push(vec3(r.Gyroscope))
	p.tempWin.Push(r.Temperature)

	accelMag := stats.Magnitude(r.Accelerometer[:])
	gyroMag := stats.Magnitude(r.Gyroscope[:])

	avgAccel, err := windowAverage(p.accelWin, r.Accelerometer)
	if err != nil {
		return nil, err
	}
	avgGyro, err := windowAverage(p.gyroWin, r.Gyroscope)
	if err != nil {
		return nil, err
	}

	avgTemp := r.Temperature
	if !p.tempWin.IsEmpty() {
		avgTemp = stats.Mean(p.tempWin.Snapshot())
	}

	p.meter.Tick()

	return &Report{
		Sequence:         p.meter.Count(),
		Quaternion:       r.Quaternion,
		Gyroscope:        r.Gyroscope,
		Accelerometer:    r.Accelerometer,
		RPY:              r.RPY,
		Temperature:      r.Temperature,
		AvgAccelerometer: avgAccel,
		AvgGyroscope:     avgGyro,
		AvgTemperature:   avgTemp,
		AccelMagnitude:   accelMag,
		GyroMagnitude:    gyroMag,
		Moving:           accelMag > p.thresholds.Accel || gyroMag > p.thresholds.Gyro,
		WindowFill:       p.accelWin.Len(),
		WindowCap:        p.accelWin.Cap(),
		SampleRate:       p.meter.Rate(),
	}, nil
}

// windowAverage averages the vectors in w. The window was pushed to just
// before this runs, so the empty fallback to the latest reading can only
// trigger if the call order ever changes; it must not crash either way.
func windowAverage(w *stats.Window[[]float64], latest [3]float64) ([3]float64, error) {
	if w.IsEmpty() {
		return latest, nil
	}
	avg, err := stats.ComponentAverage(w.Snapshot(), 3)
	if err != nil {
		return [3]float64{}, err
	}
	var out [3]float64
	copy(out[:], avg)
	return out, nil
}

func vec3(a [3]float64) []float64 {
	return []float64{a[0], a[1], a[2]}
}
