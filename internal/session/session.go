// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session captures the reference orientation of a sensor at start
// and reports every later sample relative to it.
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/imu_camera/internal/orientation"
)

// Policy selects how degenerate samples are handled.
type Policy int

const (
	// PolicyPropagate computes on raw samples; NaN/zero input flows through.
	PolicyPropagate Policy = iota
	// PolicyStrict rejects invalid samples with orientation.ErrInvalidOrientation
	// and normalizes valid ones.
	PolicyStrict
)

func (p Policy) String() string {
	switch p {
	case PolicyPropagate:
		return "propagate"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "propagate" or "strict".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "propagate":
		return PolicyPropagate, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return 0, fmt.Errorf("unknown orientation policy %q (want propagate or strict)", s)
	}
}

// Options configure Start.
type Options struct {
	Policy Policy
	// OriginTimeout bounds the wait for the first sample. Zero waits until ctx is done.
	OriginTimeout time.Duration
}

// Session owns the reference orientation. The origin never changes after Start.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	src    orientation.Source
	origin orientation.Quaternion
	policy Policy
}

// Start captures the origin from src. Sources that expose their sample store
// are waited on until the first sample arrives; others are read immediately.
func Start(ctx context.Context, src orientation.Source, opts Options) (*Session, error) {
	origin := src.LatestOrientation()

	if ss, ok := src.(orientation.SampleSource); ok {
		waitCtx := ctx
		if opts.OriginTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, opts.OriginTimeout)
			defer cancel()
		}
		first, err := ss.Samples().Wait(waitCtx)
		if err != nil {
			return nil, fmt.Errorf("waiting for first orientation sample: %w", err)
		}
		origin = first.Q
	}

	if opts.Policy == PolicyStrict {
		n, err := orientation.Normalize(origin)
		if err != nil {
			return nil, fmt.Errorf("origin: %w", err)
		}
		origin = n
	}

	s := &Session{
		ID:      uuid.New(),
		Started: time.Now(),
		src:     src,
		origin:  origin,
		policy:  opts.Policy,
	}
	log.Printf("session %s: origin captured %v (policy=%s)", s.ID, origin, opts.Policy)
	return s, nil
}

// Origin returns the reference orientation captured by Start.
func (s *Session) Origin() orientation.Quaternion { return s.origin }

// Sample reads the source once. Sources without a sample store get a
// sample stamped now with Seq 0.
func (s *Session) Sample() orientation.Sample {
	if ss, ok := s.src.(orientation.SampleSource); ok {
		if smp, ok := ss.Samples().Load(); ok {
			return smp
		}
	}
	return orientation.Sample{Q: s.src.LatestOrientation(), Time: time.Now()}
}

// RelativeTo returns the rotation of smp relative to the origin.
func (s *Session) RelativeTo(smp orientation.Sample) (orientation.Quaternion, error) {
	if s.policy == PolicyStrict {
		return orientation.ComputeRelativeRotationChecked(smp.Q, s.origin)
	}
	return orientation.ComputeRelativeRotation(smp.Q, s.origin), nil
}

// Relative reads the current sample and returns it together with its
// rotation relative to the origin. Both come from the same read.
func (s *Session) Relative() (rel orientation.Quaternion, current orientation.Sample, err error) {
	current = s.Sample()
	rel, err = s.RelativeTo(current)
	return rel, current, err
}

// Close releases the underlying source.
func (s *Session) Close() error {
	return s.src.Close()
}
