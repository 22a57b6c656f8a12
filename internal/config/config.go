package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker         string
	MQTTClientIDPrefix string
	ConnectTimeoutMS   int

	// Topics
	TopicLowState string
	TopicReport   string

	// Sample processing
	// Rolling window capacity for accel/gyro/temperature smoothing.
	WindowSize int
	// Motion classification thresholds. Empirical: a quadruped at rest
	// with gravity-compensated accel stays well below both.
	MotionAccelThreshold float64 // m/s²
	MotionGyroThreshold  float64 // rad/s

	// Run loop timing (milliseconds)
	IdleSleepMS        int // sleep when no sample is pending
	ReadErrorBackoffMS int // sleep after an unexpected transport error

	// Bench producer
	ProducerIntervalMS int
	// Publish one malformed sample every N messages; 0 disables.
	ProducerFaultEvery int

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get() allows multiple concurrent readers.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config preloaded with the tunable defaults; the file
// only has to name the deployment-specific values.
func defaults() *Config {
	return &Config{
		MQTTClientIDPrefix:   "go2-telemetry",
		ConnectTimeoutMS:     3000,
		WindowSize:           10,
		MotionAccelThreshold: 1.1,
		MotionGyroThreshold:  0.1,
		IdleSleepMS:          1,
		ReadErrorBackoffMS:   100,
		ProducerIntervalMS:   20,
		WebServerPort:        8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PREFIX":
		c.MQTTClientIDPrefix = value
	case "CONNECT_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONNECT_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("CONNECT_TIMEOUT_MS must be positive, got %d", ms)
		}
		c.ConnectTimeoutMS = ms

	// Topics
	case "TOPIC_LOWSTATE":
		c.TopicLowState = value
	case "TOPIC_REPORT":
		c.TopicReport = value

	// Sample processing
	case "WINDOW_SIZE":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SIZE %q: %w", value, err)
		}
		if size <= 0 {
			return fmt.Errorf("WINDOW_SIZE must be positive, got %d", size)
		}
		c.WindowSize = size
	case "MOTION_ACCEL_THRESHOLD":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOTION_ACCEL_THRESHOLD %q: %w", value, err)
		}
		if threshold <= 0 {
			return fmt.Errorf("MOTION_ACCEL_THRESHOLD must be positive, got %g", threshold)
		}
		c.MotionAccelThreshold = threshold
	case "MOTION_GYRO_THRESHOLD":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOTION_GYRO_THRESHOLD %q: %w", value, err)
		}
		if threshold <= 0 {
			return fmt.Errorf("MOTION_GYRO_THRESHOLD must be positive, got %g", threshold)
		}
		c.MotionGyroThreshold = threshold

	// Run loop timing
	case "IDLE_SLEEP_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IDLE_SLEEP_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("IDLE_SLEEP_MS must be positive, got %d", ms)
		}
		c.IdleSleepMS = ms
	case "READ_ERROR_BACKOFF_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid READ_ERROR_BACKOFF_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("READ_ERROR_BACKOFF_MS must be positive, got %d", ms)
		}
		c.ReadErrorBackoffMS = ms

	// Bench producer
	case "PRODUCER_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_INTERVAL_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("PRODUCER_INTERVAL_MS must be positive, got %d", ms)
		}
		c.ProducerIntervalMS = ms
	case "PRODUCER_FAULT_EVERY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_FAULT_EVERY %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("PRODUCER_FAULT_EVERY must be >= 0, got %d", n)
		}
		c.ProducerFaultEvery = n

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicLowState == "" {
		return fmt.Errorf("TOPIC_LOWSTATE is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
