// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/imu_camera/internal/app"
	"github.com/relabs-tech/imu_camera/internal/config"
)

func main() {
	configPath := flag.String("config", "imu_camera_config.txt", "Path to configuration file")
	flag.Parse()

	log.Println("starting imu-camera camera controller")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config from %s: %v", *configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunCamera(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
