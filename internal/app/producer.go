package app

import (
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/go2_telemetry/internal/channel"
	"github.com/relabs-tech/go2_telemetry/internal/config"
	"github.com/relabs-tech/go2_telemetry/internal/lowstate"
)

// A malformed payload for the fault injector: the accelerometer member is
// absent, so consumers must skip it without dropping the stream.
const faultPayload = `{"imu_state":{"quaternion":[1,0,0,0],"gyroscope":[0,0,0],"rpy":[0,0,0],"temperature":35.0}}`

// RunProducer publishes synthetic lowstate samples at the configured
// interval so the monitor can run without a robot. When
// PRODUCER_FAULT_EVERY is set, every Nth sample is malformed to exercise
// the consumer's skip path.
func RunProducer() error {
	cfg := config.Get()

	if err := channel.Initialize(channel.Options{
		Broker:         cfg.MQTTBroker,
		ClientIDPrefix: cfg.MQTTClientIDPrefix + "-producer",
		ConnectTimeout: time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
	}); err != nil {
		return err
	}
	defer channel.Shutdown()

	pub, err := channel.NewPublisher[lowstate.LowState](cfg.TopicLowState)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interval := time.Duration(cfg.ProducerIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("producer: publishing to %s every %s", cfg.TopicLowState, interval)

	start := time.Now()
	var seq uint32
	for {
		select {
		case sig := <-sigCh:
			log.Printf("producer: received %v, stopping after %d samples", sig, seq)
			return nil
		case t := <-ticker.C:
			seq++
			if cfg.ProducerFaultEvery > 0 && seq%uint32(cfg.ProducerFaultEvery) == 0 {
				if err := pub.PublishBytes([]byte(faultPayload)); err != nil {
					log.Printf("producer: publish fault sample: %v", err)
				}
				continue
			}
			sample := syntheticLowState(seq, t.Sub(start).Seconds())
			if err := pub.Publish(&sample); err != nil {
				log.Printf("producer: publish: %v", err)
			}
		}
	}
}

// syntheticLowState generates a slow wobble around rest: sub-threshold
// accel and gyro noise plus a drifting temperature, the signal a quadruped
// standing still produces after gravity compensation.
func syntheticLowState(seq uint32, elapsed float64) lowstate.LowState {
	temp := 35 + 2*math.Sin(elapsed/30)
	return lowstate.LowState{
		Tick: seq,
		IMUState: &lowstate.IMUState{
			Quaternion: []float64{1, 0, 0, 0},
			Gyroscope: []float64{
				0.01 * math.Sin(elapsed*3),
				0.01 * math.Cos(elapsed*2),
				0,
			},
			Accelerometer: []float64{
				0.05 * math.Sin(elapsed),
				0.05 * math.Cos(elapsed),
				0.02,
			},
			RPY: []float64{
				0.02 * math.Sin(elapsed),
				0.02 * math.Cos(elapsed),
				0,
			},
			Temperature: &temp,
		},
		PowerV: 28.4,
	}
}
