// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Sample is one published orientation. Published samples are never mutated.
type Sample struct {
	Q        Quaternion
	Previous Quaternion // sample before this one, Identity for the first
	Time     time.Time
	Seq      uint64
}

// Latest hands samples from a producer goroutine to any number of readers.
// Readers always see a complete sample; neither side takes a lock.
type Latest struct {
	cur   atomic.Pointer[Sample]
	ready chan struct{}
	once  sync.Once
}

// NewLatest returns an empty store. Wait blocks until the first Publish.
func NewLatest() *Latest {
	return &Latest{ready: make(chan struct{})}
}

// Publish stores q as the newest sample and returns it.
func (l *Latest) Publish(q Quaternion, t time.Time) Sample {
	for {
		prev := l.cur.Load()
		next := &Sample{Q: q, Previous: Identity, Time: t, Seq: 1}
		if prev != nil {
			next.Previous = prev.Q
			next.Seq = prev.Seq + 1
		}
		if l.cur.CompareAndSwap(prev, next) {
			l.once.Do(func() { close(l.ready) })
			return *next
		}
	}
}

// Load returns the newest sample, or false if nothing was published yet.
func (l *Latest) Load() (Sample, bool) {
	s := l.cur.Load()
	if s == nil {
		return Sample{}, false
	}
	return *s, true
}

// Quaternion returns the newest orientation, Identity before the first sample.
func (l *Latest) Quaternion() Quaternion {
	if s := l.cur.Load(); s != nil {
		return s.Q
	}
	return Identity
}

// Wait blocks until the first sample is published or ctx is done.
func (l *Latest) Wait(ctx context.Context) (Sample, error) {
	select {
	case <-l.ready:
		s, _ := l.Load()
		return s, nil
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}
}
