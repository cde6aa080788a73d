// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
)

// RunMockConsole runs the whole pipeline on the mock source without a broker
// and prints the debug readout.
func RunMockConsole(ctx context.Context) error {
	cfg := config.Get()

	src := orientation.NewMockSource(time.Duration(cfg.QuaternionPeriodMS) * time.Millisecond)
	sess, err := startSession(ctx, cfg, src)
	if err != nil {
		_ = src.Close()
		return err
	}
	defer sess.Close()

	frameInterval := time.Duration(cfg.FrameIntervalMS) * time.Millisecond
	loop := newCameraLoop(sess, rigParams(cfg))

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	printEvery := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var lastPrint time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			state, err := loop.tick(t, frameInterval)
			if err != nil {
				return err
			}
			if t.Sub(lastPrint) < printEvery {
				continue
			}
			lastPrint = t
			fmt.Println(formatQuaternionLine(state.Quaternion))
			fmt.Println(formatCameraLine(state))
		}
	}
}
