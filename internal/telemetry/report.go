package telemetry

import (
	"fmt"
	"io"
	"strings"
)

// Report is the derived-metric value produced for one processed sample.
// It is a pure value; rendering it to the console, a broker topic, or a
// browser is the caller's concern.
type Report struct {
	Sequence uint64 `json:"sequence"`

	Quaternion    [4]float64 `json:"quaternion"`
	Gyroscope     [3]float64 `json:"gyroscope"`     // rad/s
	Accelerometer [3]float64 `json:"accelerometer"` // m/s²
	RPY           [3]float64 `json:"rpy"`           // rad
	Temperature   float64    `json:"temperature"`   // °C

	AvgAccelerometer [3]float64 `json:"avg_accelerometer"`
	AvgGyroscope     [3]float64 `json:"avg_gyroscope"`
	AvgTemperature   float64    `json:"avg_temperature"`

	AccelMagnitude float64 `json:"accel_magnitude"`
	GyroMagnitude  float64 `json:"gyro_magnitude"`
	Moving         bool    `json:"moving"`

	WindowFill int     `json:"window_fill"`
	WindowCap  int     `json:"window_cap"`
	SampleRate float64 `json:"sample_rate_hz"`
}

// Render writes the human-readable block the console monitor prints for
// every sample: raw fields at 4 decimals, temperature and rate at 1.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "[%04d] LOWSTATE IMU DATA\n", r.Sequence)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "RAW SENSOR DATA:")
	fmt.Fprintf(w, "  Temperature:   %6.1f°C (avg: %6.1f°C)\n", r.Temperature, r.AvgTemperature)
	fmt.Fprintf(w, "  Quaternion:    [%8.4f, %8.4f, %8.4f, %8.4f]\n",
		r.Quaternion[0], r.Quaternion[1], r.Quaternion[2], r.Quaternion[3])
	fmt.Fprintf(w, "  Gyroscope:     [%8.4f, %8.4f, %8.4f] rad/s\n",
		r.Gyroscope[0], r.Gyroscope[1], r.Gyroscope[2])
	fmt.Fprintf(w, "  Accelerometer: [%8.4f, %8.4f, %8.4f] m/s²\n",
		r.Accelerometer[0], r.Accelerometer[1], r.Accelerometer[2])
	fmt.Fprintf(w, "  RPY:           [%8.4f, %8.4f, %8.4f] rad\n",
		r.RPY[0], r.RPY[1], r.RPY[2])
	fmt.Fprintln(w, "COMPUTED METRICS:")
	fmt.Fprintf(w, "  Accel Magnitude: %8.4f m/s²\n", r.AccelMagnitude)
	fmt.Fprintf(w, "  Gyro Magnitude:  %8.4f rad/s\n", r.GyroMagnitude)
	fmt.Fprintf(w, "  Avg Accel:       [%8.4f, %8.4f, %8.4f] m/s²\n",
		r.AvgAccelerometer[0], r.AvgAccelerometer[1], r.AvgAccelerometer[2])
	fmt.Fprintf(w, "  Avg Gyro:        [%8.4f, %8.4f, %8.4f] rad/s\n",
		r.AvgGyroscope[0], r.AvgGyroscope[1], r.AvgGyroscope[2])
	fmt.Fprintf(w, "  Movement:        %s\n", yesNo(r.Moving))
	fmt.Fprintln(w, "DATA QUALITY:")
	fmt.Fprintf(w, "  Buffer Size:     %d/%d\n", r.WindowFill, r.WindowCap)
	fmt.Fprintf(w, "  Sample Rate:    ~%.1f Hz\n", r.SampleRate)
	fmt.Fprintln(w)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
