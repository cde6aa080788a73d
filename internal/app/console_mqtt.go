// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/relabs-tech/imu_camera/internal/camera"
	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
)

func formatQuaternionLine(q orientation.Quaternion) string {
	return fmt.Sprintf("[QUAT] Quaternion: %v", q)
}

func formatCameraLine(s camera.State) string {
	return fmt.Sprintf(
		"[CAM ] Camera: %v  ROLL=%6.2f PITCH=%6.2f YAW=%6.2f  POS=(%.1f, %.1f, %.1f)",
		s.Rotation, s.Pose.Roll, s.Pose.Pitch, s.Pose.Yaw,
		s.Position.X, s.Position.Y, s.Position.Z,
	)
}

// RunConsoleMQTT prints raw sensor samples and camera states from the broker.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicQuaternion, func(w orientation.WireSample) {
		fmt.Println(formatQuaternionLine(w.Quaternion()))
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicCamera, func(s camera.State) {
		fmt.Println(formatCameraLine(s))
	}); err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}
