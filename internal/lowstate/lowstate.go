package lowstate

import (
	"fmt"
	"math"
)

// IMUState mirrors the imu_state member of the Go2 rt/lowstate message as
// it arrives on the wire. Vector lengths are validated at extraction, not
// decode, so a short or missing member survives unmarshalling and is
// reported as a per-sample fault instead of killing the stream.
type IMUState struct {
	Quaternion    []float64 `json:"quaternion"`    // w, x, y, z
	Gyroscope     []float64 `json:"gyroscope"`     // rad/s
	Accelerometer []float64 `json:"accelerometer"` // m/s²
	RPY           []float64 `json:"rpy"`           // roll, pitch, yaw in rad
	Temperature   *float64  `json:"temperature"`   // °C
}

// LowState is the subset of the robot low-level state this consumer uses.
type LowState struct {
	Tick     uint32    `json:"tick"`
	IMUState *IMUState `json:"imu_state"`
	PowerV   float64   `json:"power_v"`
}

// Reading is a validated, fixed-shape IMU sample. Construction goes through
// ExtractReading; a Reading never carries a partial or non-finite value.
type Reading struct {
	Quaternion    [4]float64
	Gyroscope     [3]float64 // rad/s
	Accelerometer [3]float64 // m/s²
	RPY           [3]float64 // rad
	Temperature   float64    // °C
}

// ExtractionError reports a missing or malformed IMU member in one sample.
// The run loop skips the sample and keeps consuming.
type ExtractionError struct {
	Field  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("imu extraction: %s: %s", e.Field, e.Reason)
}

// ExtractReading validates the IMU member of a lowstate sample and returns
// a complete reading, or an *ExtractionError if any field is missing, the
// wrong length, or non-finite.
func ExtractReading(s *LowState) (Reading, error) {
	var r Reading
	if s == nil || s.IMUState == nil {
		return Reading{}, &ExtractionError{Field: "imu_state", Reason: "missing"}
	}
	imu := s.IMUState

	if err := copyVector(r.Quaternion[:], imu.Quaternion, "quaternion"); err != nil {
		return Reading{}, err
	}
	if err := copyVector(r.Gyroscope[:], imu.Gyroscope, "gyroscope"); err != nil {
		return Reading{}, err
	}
	if err := copyVector(r.Accelerometer[:], imu.Accelerometer, "accelerometer"); err != nil {
		return Reading{}, err
	}
	if err := copyVector(r.RPY[:], imu.RPY, "rpy"); err != nil {
		return Reading{}, err
	}

	if imu.Temperature == nil {
		return Reading{}, &ExtractionError{Field: "temperature", Reason: "missing"}
	}
	if math.IsNaN(*imu.Temperature) || math.IsInf(*imu.Temperature, 0) {
		return Reading{}, &ExtractionError{Field: "temperature", Reason: "not finite"}
	}
	r.Temperature = *imu.Temperature

	return r, nil
}

func copyVector(dst, src []float64, field string) error {
	if src == nil {
		return &ExtractionError{Field: field, Reason: "missing"}
	}
	if len(src) != len(dst) {
		return &ExtractionError{
			Field:  field,
			Reason: fmt.Sprintf("want %d components, got %d", len(dst), len(src)),
		}
	}
	for i, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ExtractionError{
				Field:  field,
				Reason: fmt.Sprintf("component %d is not finite", i),
			}
		}
		dst[i] = v
	}
	return nil
}
