// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
)

// RunSimulator stands in for the sensor: it pushes a synthetic quaternion
// to the quaternion topic every QUATERNION_PERIOD_MS.
func RunSimulator(ctx context.Context) error {
	log.Println("starting imu-camera quaternion simulator")
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDSim)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	period := time.Duration(cfg.QuaternionPeriodMS) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	logEvery := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var lastLog time.Time
	var sent uint64

	for {
		select {
		case <-ctx.Done():
			log.Printf("simulator: shutting down after %d samples", sent)
			return nil
		case t := <-ticker.C:
			q := orientation.MockOrientation(t.Sub(start).Seconds())
			if err := publishJSON(client, cfg.TopicQuaternion, true, orientation.NewWireSample(q, t)); err != nil {
				log.Printf("simulator: %v", err)
				continue
			}
			sent++
			if t.Sub(lastLog) >= logEvery {
				lastLog = t
				log.Printf("simulator: %s sample %d q=%v", t.Format(time.RFC3339), sent, q)
			}
		}
	}
}
