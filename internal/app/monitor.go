package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/go2_telemetry/internal/channel"
	"github.com/relabs-tech/go2_telemetry/internal/config"
	"github.com/relabs-tech/go2_telemetry/internal/lowstate"
	"github.com/relabs-tech/go2_telemetry/internal/telemetry"
)

// RunMonitor subscribes to the robot lowstate topic and prints a derived
// IMU report per sample until an interrupt stops it. topicOverride, when
// non-empty, replaces the configured lowstate topic.
func RunMonitor(topicOverride string) error {
	cfg := config.Get()

	if err := channel.Initialize(channel.Options{
		Broker:         cfg.MQTTBroker,
		ClientIDPrefix: cfg.MQTTClientIDPrefix,
		ConnectTimeout: time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
	}); err != nil {
		return err
	}

	topic := cfg.TopicLowState
	if topicOverride != "" {
		topic = topicOverride
	}

	proc := telemetry.NewProcessor(telemetry.ProcessorOptions{
		WindowSize: cfg.WindowSize,
		Thresholds: telemetry.Thresholds{
			Accel: cfg.MotionAccelThreshold,
			Gyro:  cfg.MotionGyroThreshold,
		},
	})

	// Processed reports also go back to the broker so the web view (or any
	// other consumer) can follow along.
	var reportPub *channel.Publisher[telemetry.Report]
	if cfg.TopicReport != "" {
		pub, err := channel.NewPublisher[telemetry.Report](cfg.TopicReport)
		if err != nil {
			return err
		}
		reportPub = pub
	}

	life := telemetry.NewLifecycle(telemetry.LifecycleOptions{
		Bind: func() (telemetry.SampleSource, error) {
			sub, err := channel.NewSubscriber[lowstate.LowState](topic)
			if err != nil {
				return nil, err
			}
			if err := sub.Init(); err != nil {
				return nil, err
			}
			return sub, nil
		},
		Processor:    proc,
		IdleSleep:    time.Duration(cfg.IdleSleepMS) * time.Millisecond,
		ErrorBackoff: time.Duration(cfg.ReadErrorBackoffMS) * time.Millisecond,
		Emit: func(r *telemetry.Report) {
			r.Render(os.Stdout)
			if reportPub != nil {
				if err := reportPub.Publish(r); err != nil {
					log.Printf("monitor: report publish: %v", err)
				}
			}
		},
	})

	// Interrupts request a cooperative stop; repeats while stopping are
	// no-ops because Stop is idempotent.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			log.Printf("monitor: received %v, shutting down", sig)
			life.Stop()
		}
	}()

	log.Printf("monitor: subscribing to %s", topic)
	return life.Start()
}
