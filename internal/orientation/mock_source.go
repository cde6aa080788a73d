// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"sync"
	"time"
)

// DefaultPeriod matches the sensor's quaternion callback period.
const DefaultPeriod = 10 * time.Millisecond

// MockSource pushes smoothly changing orientations from a background
// goroutine, the same way the sensor delivers its callbacks.
type MockSource struct {
	start  time.Time
	latest *Latest

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewMockSource starts the generator. A non-positive period uses DefaultPeriod.
func NewMockSource(period time.Duration) *MockSource {
	if period <= 0 {
		period = DefaultPeriod
	}
	m := &MockSource{
		start:  time.Now(),
		latest: NewLatest(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.latest.Publish(MockOrientation(0), m.start)
	go m.run(period)
	return m
}

func (m *MockSource) run(period time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case t := <-ticker.C:
			m.latest.Publish(MockOrientation(t.Sub(m.start).Seconds()), t)
		}
	}
}

// LatestOrientation returns the newest generated orientation.
func (m *MockSource) LatestOrientation() Quaternion { return m.latest.Quaternion() }

// Samples exposes the sample store the generator publishes into.
func (m *MockSource) Samples() *Latest { return m.latest }

// Close stops the generator and waits for it to exit.
func (m *MockSource) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done
	return nil
}

// MockOrientation returns the synthetic orientation at elapsed seconds.
func MockOrientation(elapsed float64) Quaternion {
	return FromEuler(Euler{
		X: 15 * math.Cos(elapsed*0.7),
		Y: 20 * math.Sin(elapsed),
		Z: math.Mod(elapsed*30, 360),
	})
}
