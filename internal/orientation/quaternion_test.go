// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func unitSamples() []Quaternion {
	return []Quaternion{
		Identity,
		{X: 0, Y: 0, Z: 1, W: 0},
		FromEuler(Euler{X: 30}),
		FromEuler(Euler{Y: -45}),
		FromEuler(Euler{Z: 170}),
		FromEuler(Euler{X: 12, Y: 250, Z: 77}),
		FromEuler(Euler{X: -80, Y: 5, Z: 300}),
	}
}

func TestComputeRelativeRotation_SameIsIdentity(t *testing.T) {
	for _, q := range unitSamples() {
		got := ComputeRelativeRotation(q, q)
		assert.Truef(t, ApproxEqual(got, Identity, tol), "q=%v got=%v", q, got)
	}
}

func TestComputeRelativeRotation_IdentityInputs(t *testing.T) {
	got := ComputeRelativeRotation(Identity, Identity)
	assert.Equal(t, Identity, got)
}

func TestComputeRelativeRotation_IdentityCurrentReturnsReference(t *testing.T) {
	ref := Quaternion{X: 0, Y: 0, Z: 1, W: 0} // 180° about z
	got := ComputeRelativeRotation(Identity, ref)
	assert.Equal(t, ref, got)
}

func TestComputeRelativeRotation_PreservesNorm(t *testing.T) {
	samples := unitSamples()
	for _, a := range samples {
		for _, b := range samples {
			got := ComputeRelativeRotation(a, b)
			assert.InDeltaf(t, 1.0, Norm(got), tol, "a=%v b=%v", a, b)
		}
	}
}

func TestComputeRelativeRotation_ConjugatesCurrent(t *testing.T) {
	a := FromEuler(Euler{Z: 30})

	got := ComputeRelativeRotation(a, Identity)
	swapped := ComputeRelativeRotation(Identity, a)

	assert.True(t, ApproxEqual(got, Conjugate(a), tol), "got=%v", got)
	assert.True(t, ApproxEqual(swapped, a, tol), "swapped=%v", swapped)
	assert.Less(t, got.Z, float32(0))
	assert.Greater(t, swapped.Z, float32(0))
}

func TestComputeRelativeRotation_MatchesHamiltonFormula(t *testing.T) {
	cur := FromEuler(Euler{X: 10, Y: 20, Z: 30})
	ref := FromEuler(Euler{X: -40, Y: 5, Z: 200})

	x1, y1, z1, w1 := -float64(cur.X), -float64(cur.Y), -float64(cur.Z), float64(cur.W)
	x2, y2, z2, w2 := float64(ref.X), float64(ref.Y), float64(ref.Z), float64(ref.W)
	want := Quaternion{
		W: float32(w1*w2 - x1*x2 - y1*y2 - z1*z2),
		X: float32(w1*x2 + x1*w2 + y1*z2 - z1*y2),
		Y: float32(w1*y2 - x1*z2 + y1*w2 + z1*x2),
		Z: float32(w1*z2 + x1*y2 - y1*x2 + z1*w2),
	}

	got := ComputeRelativeRotation(cur, ref)
	assert.True(t, ApproxEqual(got, want, 1e-6), "got=%v want=%v", got, want)
}

func TestComputeRelativeRotation_DoesNotMutateInputs(t *testing.T) {
	cur := FromEuler(Euler{X: 10})
	ref := FromEuler(Euler{Y: 10})
	curCopy, refCopy := cur, ref

	_ = ComputeRelativeRotation(cur, ref)
	assert.Equal(t, curCopy, cur)
	assert.Equal(t, refCopy, ref)
}

func TestComputeRelativeRotation_ZeroPropagates(t *testing.T) {
	var zero Quaternion
	require.NotPanics(t, func() {
		got := ComputeRelativeRotation(zero, Identity)
		assert.Equal(t, 0.0, Norm(got))
	})
}

func TestComputeRelativeRotation_NaNPropagates(t *testing.T) {
	nan := float32(math.NaN())
	got := ComputeRelativeRotation(Quaternion{X: nan, W: 1}, Identity)
	assert.False(t, IsFinite(got))
}

func TestComputeRelativeRotationChecked(t *testing.T) {
	_, err := ComputeRelativeRotationChecked(Quaternion{}, Identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOrientation))
	assert.Contains(t, err.Error(), "current")

	nan := float32(math.NaN())
	_, err = ComputeRelativeRotationChecked(Identity, Quaternion{Y: nan, W: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOrientation)
	assert.Contains(t, err.Error(), "reference")

	// Non-unit but valid inputs are normalized.
	got, err := ComputeRelativeRotationChecked(Quaternion{W: 2}, Quaternion{Z: 3})
	require.NoError(t, err)
	assert.True(t, ApproxEqual(got, Quaternion{Z: 1}, tol), "got=%v", got)
}

func TestNormalize(t *testing.T) {
	q, err := Normalize(Quaternion{X: 1, Y: 1, Z: 1, W: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Norm(q), tol)
	assert.InDelta(t, 0.5, float64(q.W), tol)

	_, err = Normalize(Quaternion{})
	assert.ErrorIs(t, err, ErrInvalidOrientation)

	inf := float32(math.Inf(1))
	_, err = Normalize(Quaternion{Z: inf})
	assert.ErrorIs(t, err, ErrInvalidOrientation)
}
