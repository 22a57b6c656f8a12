// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/go2_telemetry/internal/app"
	"github.com/relabs-tech/go2_telemetry/internal/config"
)

func main() {
	configPath := flag.String("config", "./go2_config.txt", "path to configuration file")
	topic := flag.String("topic", "", "override the lowstate topic from the config file")
	flag.Parse()

	log.Println("starting go2-telemetry lowstate monitor (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunMonitor(*topic); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
