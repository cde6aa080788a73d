// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package camera

import (
	"time"

	"github.com/relabs-tech/imu_camera/internal/orientation"
)

// State is the camera snapshot published once per frame.
type State struct {
	Session    string                 `json:"session"`
	Started    time.Time              `json:"started"`
	Seq        uint64                 `json:"seq"` // sensor sample sequence, 0 if unknown
	Time       time.Time              `json:"time"`
	SampleTime time.Time              `json:"sample_time"`
	Origin     orientation.Quaternion `json:"origin"`     // reference captured at session start
	Quaternion orientation.Quaternion `json:"quaternion"` // raw sensor sample
	Relative   orientation.Quaternion `json:"relative"`   // sample relative to the session origin
	Pose       orientation.Pose       `json:"pose"`
	Frame
}
