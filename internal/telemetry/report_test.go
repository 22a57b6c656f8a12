package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderedReport(t *testing.T) string {
	t.Helper()
	r := &Report{
		Sequence:         7,
		Quaternion:       [4]float64{0.9999, 0.0001, 0.0002, 0.0003},
		Gyroscope:        [3]float64{0.01, 0.02, 0.03},
		Accelerometer:    [3]float64{0.05, 0.1, 9.78},
		RPY:              [3]float64{0.01, -0.01, 1.57},
		Temperature:      36.5,
		AvgAccelerometer: [3]float64{0.04, 0.09, 9.77},
		AvgGyroscope:     [3]float64{0.01, 0.02, 0.03},
		AvgTemperature:   36.4,
		AccelMagnitude:   9.7807,
		GyroMagnitude:    0.0374,
		Moving:           false,
		WindowFill:       4,
		WindowCap:        10,
		SampleRate:       49.8,
	}
	var buf bytes.Buffer
	r.Render(&buf)
	return buf.String()
}

func TestRenderFieldPresenceAndOrder(t *testing.T) {
	out := renderedReport(t)

	labels := []string{
		"[0007] LOWSTATE IMU DATA",
		"RAW SENSOR DATA:",
		"Temperature:",
		"Quaternion:",
		"Gyroscope:",
		"Accelerometer:",
		"RPY:",
		"COMPUTED METRICS:",
		"Accel Magnitude:",
		"Gyro Magnitude:",
		"Avg Accel:",
		"Avg Gyro:",
		"Movement:",
		"DATA QUALITY:",
		"Buffer Size:",
		"Sample Rate:",
	}
	pos := -1
	for _, label := range labels {
		idx := strings.Index(out, label)
		require.GreaterOrEqual(t, idx, 0, "missing label %q", label)
		assert.Greater(t, idx, pos, "label %q out of order", label)
		pos = idx
	}
}

func TestRenderPrecision(t *testing.T) {
	out := renderedReport(t)

	// Vector components at 4 decimals, temperature and rate at 1.
	assert.Contains(t, out, "9.7800")
	assert.Contains(t, out, "9.7807")
	assert.Contains(t, out, "36.5°C")
	assert.Contains(t, out, "36.4°C")
	assert.Contains(t, out, "~49.8 Hz")
	assert.Contains(t, out, "4/10")
	assert.Contains(t, out, "Movement:        NO")
}

func TestRenderMovementYes(t *testing.T) {
	r := &Report{Moving: true}
	var buf bytes.Buffer
	r.Render(&buf)
	assert.Contains(t, buf.String(), "Movement:        YES")
}
