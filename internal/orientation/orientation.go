// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Pose is the human-readable view of an orientation, in degrees (-180, 180].
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that provides the latest orientation sample.
// Implementations deliver samples asynchronously; LatestOrientation never blocks.
type Source interface {
	LatestOrientation() Quaternion
	Close() error
}

// SampleSource is a Source backed by a snapshot store, so callers can wait
// for the first sample and see sample metadata.
type SampleSource interface {
	Source
	Samples() *Latest
}

// PoseFromQuaternion maps the Euler decomposition of q onto roll/pitch/yaw.
// The sensor's roll lies on the camera's forward axis (Euler Y).
func PoseFromQuaternion(q Quaternion) Pose {
	e := ToEuler(q)
	return Pose{
		Roll:  Fold180(e.Y),
		Pitch: Fold180(e.X),
		Yaw:   Fold180(e.Z),
	}
}
