// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// MinNorm is the smallest quaternion magnitude accepted by the strict policy.
const MinNorm = 1e-6

// ErrInvalidOrientation is returned when a quaternion carries NaN/Inf
// components or has (near) zero magnitude.
var ErrInvalidOrientation = errors.New("invalid orientation input")

// Quaternion is a rotation sample as delivered by the sensor (x, y, z, w).
// Unit magnitude is expected but not enforced.
type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// Identity is the zero rotation.
var Identity = Quaternion{X: 0, Y: 0, Z: 0, W: 1}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", q.X, q.Y, q.Z, q.W)
}

// number converts to gonum's representation (Real is the scalar part).
func (q Quaternion) number() quat.Number {
	return quat.Number{
		Real: float64(q.W),
		Imag: float64(q.X),
		Jmag: float64(q.Y),
		Kmag: float64(q.Z),
	}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{
		X: float32(n.Imag),
		Y: float32(n.Jmag),
		Z: float32(n.Kmag),
		W: float32(n.Real),
	}
}

// Conjugate negates the vector part.
func Conjugate(q Quaternion) Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Mul is the Hamilton product a*b.
//
//	w' = w1·w2 − x1·x2 − y1·y2 − z1·z2
//	x' = w1·x2 + x1·w2 + y1·z2 − z1·y2
//	y' = w1·y2 − x1·z2 + y1·w2 + z1·x2
//	z' = w1·z2 + x1·y2 − y1·x2 + z1·w2
func Mul(a, b Quaternion) Quaternion {
	return fromNumber(quat.Mul(a.number(), b.number()))
}

// Norm returns the quaternion magnitude.
func Norm(q Quaternion) float64 {
	return quat.Abs(q.number())
}

// IsFinite reports whether every component is a finite number.
func IsFinite(q Quaternion) bool {
	for _, c := range [4]float32{q.X, q.Y, q.Z, q.W} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Validate returns ErrInvalidOrientation for non-finite or degenerate input.
func Validate(q Quaternion) error {
	if !IsFinite(q) {
		return fmt.Errorf("%w: non-finite component in %v", ErrInvalidOrientation, q)
	}
	if n := Norm(q); n < MinNorm {
		return fmt.Errorf("%w: magnitude %g below %g", ErrInvalidOrientation, n, MinNorm)
	}
	return nil
}

// Normalize scales q to unit magnitude.
func Normalize(q Quaternion) (Quaternion, error) {
	if err := Validate(q); err != nil {
		return Quaternion{}, err
	}
	n := q.number()
	return fromNumber(quat.Scale(1/quat.Abs(n), n)), nil
}

// ApproxEqual compares component-wise within tol.
func ApproxEqual(a, b Quaternion, tol float64) bool {
	return math.Abs(float64(a.X-b.X)) <= tol &&
		math.Abs(float64(a.Y-b.Y)) <= tol &&
		math.Abs(float64(a.Z-b.Z)) <= tol &&
		math.Abs(float64(a.W-b.W)) <= tol
}

// ComputeRelativeRotation returns conj(current) * reference: the rotation
// that maps current onto the reference frame. Inputs are neither validated
// nor normalized; NaN components propagate into the result.
func ComputeRelativeRotation(current, reference Quaternion) Quaternion {
	return Mul(Conjugate(current), reference)
}

// ComputeRelativeRotationChecked rejects non-finite or zero-magnitude
// inputs with ErrInvalidOrientation and normalizes both before computing
// the relative rotation.
func ComputeRelativeRotationChecked(current, reference Quaternion) (Quaternion, error) {
	c, err := Normalize(current)
	if err != nil {
		return Quaternion{}, fmt.Errorf("current: %w", err)
	}
	r, err := Normalize(reference)
	if err != nil {
		return Quaternion{}, fmt.Errorf("reference: %w", err)
	}
	return ComputeRelativeRotation(c, r), nil
}
