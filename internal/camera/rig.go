// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package camera moves a fly-through camera from a relative sensor
// orientation plus a strafe/lift/turn control state.
//
// Axes follow the viewer's engine: +X right, +Y up, +Z forward.
package camera

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/imu_camera/internal/orientation"
)

var (
	right   = r3.Vec{X: 1}
	up      = r3.Vec{Y: 1}
	forward = r3.Vec{Z: 1}
)

// Controls is the operator input for one frame. Each field is clamped to [-1, 1].
type Controls struct {
	Strafe float64 `json:"strafe"` // -1 left, +1 right
	Lift   float64 `json:"lift"`   // -1 fall, +1 rise
	Turn   float64 `json:"turn"`   // -1 turn left, +1 turn right
}

func (c Controls) clamped() Controls {
	return Controls{Strafe: clamp1(c.Strafe), Lift: clamp1(c.Lift), Turn: clamp1(c.Turn)}
}

func clamp1(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// Params are the rig's speeds, in units per second unless noted.
type Params struct {
	Speed             float64 // forward flight
	MaxStrafeVelocity float64
	MaxLiftVelocity   float64
	MaxFallVelocity   float64
	YawInfluence      float64 // degrees of turn per degree of roll, per frame
	TurnStep          float64 // degrees per frame while Turn is held

	// Compose applies the relative quaternion as one rotation instead of
	// three world-axis rotations built from its Euler angles.
	Compose bool
}

// DefaultParams returns the stock fly-through speeds.
func DefaultParams() Params {
	return Params{
		Speed:             100,
		MaxStrafeVelocity: 100,
		MaxLiftVelocity:   25,
		MaxFallVelocity:   50,
		YawInfluence:      0.01,
		TurnStep:          1,
	}
}

// Vec3 is a JSON-friendly position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is the rig output of one Step.
type Frame struct {
	Position Vec3                   `json:"position"`
	Rotation orientation.Quaternion `json:"rotation"`
	Euler    orientation.Euler      `json:"euler"`    // of the relative sensor rotation
	TurnDeg  float64                `json:"turn_deg"` // accumulated turn about world up
	Roll     float64                `json:"roll"`     // folded roll that fed the turn
}

// Rig is not safe for concurrent use.
type Rig struct {
	params   Params
	position r3.Vec
	rotation quat.Number
	turn     float64
}

// NewRig returns a rig at the origin with identity rotation.
func NewRig(p Params) *Rig {
	return &Rig{params: p, rotation: quat.Number{Real: 1}}
}

// Step advances the camera by dt seconds.
func (r *Rig) Step(rel orientation.Quaternion, c Controls, dt float64) Frame {
	c = c.clamped()
	e := orientation.ToEuler(rel)

	// Orientation from the sensor, rebuilt from scratch every frame.
	r.rotation = quat.Number{Real: 1}
	if r.params.Compose {
		r.rotation = unit(quat.Number{
			Real: float64(rel.W), Imag: float64(rel.X), Jmag: float64(rel.Y), Kmag: float64(rel.Z),
		})
	} else {
		r.rotateWorld(right, e.X)
		r.rotateWorld(forward, e.Y)
		r.rotateWorld(up, e.Z)
	}

	r.translateLocal(r3.Scale(c.Strafe*r.params.MaxStrafeVelocity*dt, right))

	if c.Lift > 0 {
		r.translateWorld(r3.Scale(c.Lift*r.params.MaxLiftVelocity*dt, up))
	} else {
		r.translateWorld(r3.Scale(c.Lift*r.params.MaxFallVelocity*dt, up))
	}

	if c.Turn != 0 {
		r.turn = math.Mod(r.turn+c.Turn*r.params.TurnStep, 360)
	}
	// A non-finite sample leaves the accumulated turn as it was.
	roll := FoldRoll(e.Y)
	if next := math.Mod(r.turn-roll*r.params.YawInfluence, 360); !math.IsNaN(next) && !math.IsInf(next, 0) {
		r.turn = next
	}
	r.rotateWorld(up, r.turn)

	r.translateLocal(r3.Scale(r.params.Speed*dt, forward))

	return Frame{
		Position: Vec3{X: r.position.X, Y: r.position.Y, Z: r.position.Z},
		Rotation: orientation.Quaternion{
			X: float32(r.rotation.Imag),
			Y: float32(r.rotation.Jmag),
			Z: float32(r.rotation.Kmag),
			W: float32(r.rotation.Real),
		},
		Euler:   e,
		TurnDeg: r.turn,
		Roll:    roll,
	}
}

// FoldRoll maps a roll angle in [0, 360) onto [-90, 90], mirroring
// angles past the vertical back towards level.
func FoldRoll(deg float64) float64 {
	if deg > 180 {
		deg -= 360
	}
	if deg > 90 {
		deg = 180 - deg
	} else if deg < -90 {
		deg = -180 - deg
	}
	return deg
}

func (r *Rig) rotateWorld(axis r3.Vec, deg float64) {
	half := deg * math.Pi / 360
	s := math.Sin(half)
	q := quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
	r.rotation = unit(quat.Mul(q, r.rotation))
}

func (r *Rig) translateWorld(v r3.Vec) {
	r.position = r3.Add(r.position, v)
}

func (r *Rig) translateLocal(v r3.Vec) {
	r.position = r3.Add(r.position, rotate(r.rotation, v))
}

// rotate applies the unit rotation q to v (q·v·q*).
func rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

func unit(q quat.Number) quat.Number {
	a := quat.Abs(q)
	if a == 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/a, q)
}
