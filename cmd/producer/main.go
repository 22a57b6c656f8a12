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
	flag.Parse()

	log.Println("starting go2-telemetry bench producer (synthetic lowstate → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
