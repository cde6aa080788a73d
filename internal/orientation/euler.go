// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// gimbalLimit is the |sin(pitch)| above which yaw and roll become coupled.
const gimbalLimit = 0.9999

// Euler holds angles in degrees, each wrapped to [0, 360).
// The rotation they describe is R = Ry(Y) · Rx(X) · Rz(Z), i.e. Z is applied
// first, then X, then Y (the camera engine's convention).
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToEuler decomposes q. Non-unit input is normalized first; a zero
// quaternion yields zero angles.
func ToEuler(q Quaternion) Euler {
	n := q.number()
	if a := quat.Abs(n); a > 0 && !math.IsInf(a, 0) {
		n = quat.Scale(1/a, n)
	}
	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag

	sinX := 2 * (w*x - y*z)
	if sinX > 1 {
		sinX = 1
	} else if sinX < -1 {
		sinX = -1
	}

	var ex, ey, ez float64
	ex = math.Asin(sinX)
	if math.Abs(sinX) < gimbalLimit {
		ey = math.Atan2(2*(x*z+w*y), 1-2*(x*x+y*y))
		ez = math.Atan2(2*(x*y+w*z), 1-2*(x*x+z*z))
	} else {
		// Gimbal lock: fold everything into Y.
		ey = math.Atan2(2*(w*y-x*z), 1-2*(y*y+z*z))
		ez = 0
	}

	return Euler{
		X: wrap360(rad2deg(ex)),
		Y: wrap360(rad2deg(ey)),
		Z: wrap360(rad2deg(ez)),
	}
}

// FromEuler builds the quaternion for e (degrees) in the ToEuler convention.
func FromEuler(e Euler) Quaternion {
	qx := axisAngle(1, 0, 0, e.X)
	qy := axisAngle(0, 1, 0, e.Y)
	qz := axisAngle(0, 0, 1, e.Z)
	return fromNumber(quat.Mul(quat.Mul(qy, qx), qz))
}

// axisAngle returns the rotation of deg degrees about the unit axis (ax, ay, az).
func axisAngle(ax, ay, az, deg float64) quat.Number {
	half := deg2rad(deg) / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: ax * s, Jmag: ay * s, Kmag: az * s}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }
func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }

// wrap360 maps any angle into [0, 360).
func wrap360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// Fold180 maps an angle in degrees into (-180, 180].
func Fold180(d float64) float64 {
	d = wrap360(d)
	if d > 180 {
		d -= 360
	}
	return d
}
