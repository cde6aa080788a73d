// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/imu_camera/internal/camera"
	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
	"github.com/relabs-tech/imu_camera/internal/session"
)

type latestSource struct{ l *orientation.Latest }

func (s latestSource) LatestOrientation() orientation.Quaternion { return s.l.Quaternion() }
func (s latestSource) Samples() *orientation.Latest { return s.l }
func (s latestSource) Close() error { return nil }

func newTestLoop(t *testing.T, params camera.Params) (*cameraLoop, *orientation.Latest) {
	t.Helper()
	l := orientation.NewLatest()
	l.Publish(orientation.Identity, time.Now())
	src := latestSource{l: l}

	sess, err := session.Start(context.Background(), src, session.Options{OriginTimeout: time.Second})
	require.NoError(t, err)
	return newCameraLoop(sess, params), l
}

func TestCameraLoop_Tick(t *testing.T) {
	loop, l := newTestLoop(t, camera.DefaultParams())
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st, err := loop.tick(t0, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Seq)
	assert.Equal(t, loop.sess.ID.String(), st.Session)
	assert.Equal(t, loop.sess.Started, st.Started)
	assert.Equal(t, orientation.Identity, st.Origin)
	assert.InDelta(t, 1.0, st.Position.Z, 1e-6, "first frame uses the frame interval")

	st, err = loop.tick(t0.Add(20*time.Millisecond), 10*time.Millisecond)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, st.Position.Z, 1e-6)

	loop.setControls(camera.Controls{Strafe: 1})
	turned := orientation.FromEuler(orientation.Euler{Z: 30})
	l.Publish(turned, t0)

	st, err = loop.tick(t0.Add(30*time.Millisecond), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), st.Seq)
	assert.Equal(t, turned, st.Quaternion)
	assert.True(t, orientation.ApproxEqual(orientation.Conjugate(turned), st.Relative, 1e-6))
	assert.InDelta(t, -30, st.Pose.Yaw, 1e-3)
	assert.NotZero(t, st.Position.X)
}

// racingSource publishes a newer sample every time LatestOrientation is
// read, like a callback goroutine landing between two reads.
type racingSource struct {
	l      *orientation.Latest
	racing bool
	bySeq  map[uint64]orientation.Quaternion
}

func (s *racingSource) publish(q orientation.Quaternion) {
	smp := s.l.Publish(q, time.Now())
	s.bySeq[smp.Seq] = q
}

func (s *racingSource) LatestOrientation() orientation.Quaternion {
	q := s.l.Quaternion()
	if s.racing {
		s.publish(orientation.FromEuler(orientation.Euler{Z: 90}))
	}
	return q
}

func (s *racingSource) Samples() *orientation.Latest { return s.l }
func (s *racingSource) Close() error { return nil }

func TestCameraLoop_StateFromOneSample(t *testing.T) {
	src := &racingSource{l: orientation.NewLatest(), bySeq: map[uint64]orientation.Quaternion{}}
	src.publish(orientation.Identity)

	sess, err := session.Start(context.Background(), src, session.Options{OriginTimeout: time.Second})
	require.NoError(t, err)
	src.racing = true
	loop := newCameraLoop(sess, camera.DefaultParams())

	t0 := time.Now()
	for i := 0; i < 3; i++ {
		st, err := loop.tick(t0.Add(time.Duration(i)*10*time.Millisecond), 10*time.Millisecond)
		require.NoError(t, err)
		require.Contains(t, src.bySeq, st.Seq)
		assert.Equal(t, src.bySeq[st.Seq], st.Quaternion, "seq %d", st.Seq)

		want := orientation.ComputeRelativeRotation(st.Quaternion, sess.Origin())
		assert.Equal(t, want, st.Relative)

		// Move on so the next tick sees a new sample.
		src.publish(orientation.FromEuler(orientation.Euler{X: float64(10 * (i + 1))}))
	}
}

func TestCameraLoop_RecoversAfterNonFiniteSample(t *testing.T) {
	l := orientation.NewLatest()
	origin := orientation.Quaternion{X: 0.5, Y: 0.5, Z: 0.5, W: 0.5}
	l.Publish(origin, time.Now())
	sess, err := session.Start(context.Background(), latestSource{l: l}, session.Options{})
	require.NoError(t, err)
	loop := newCameraLoop(sess, camera.DefaultParams())

	t0 := time.Now()
	l.Publish(orientation.Quaternion{X: -3e38, Y: -3e38, Z: 3e38, W: 3e38}, t0)
	_, err = loop.tick(t0, 10*time.Millisecond)
	require.NoError(t, err)

	l.Publish(origin, t0)
	for i := 1; i <= 3; i++ {
		st, err := loop.tick(t0.Add(time.Duration(i)*10*time.Millisecond), 10*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(st.TurnDeg), "tick %d", i)

		_, err = json.Marshal(st)
		assert.NoError(t, err, "tick %d", i)
	}
}

func TestCameraLoop_StrictPolicyError(t *testing.T) {
	l := orientation.NewLatest()
	l.Publish(orientation.Identity, time.Now())
	src := latestSource{l: l}
	sess, err := session.Start(context.Background(), src, session.Options{Policy: session.PolicyStrict})
	require.NoError(t, err)

	loop := newCameraLoop(sess, camera.DefaultParams())
	l.Publish(orientation.Quaternion{}, time.Now())

	_, err = loop.tick(time.Now(), 10*time.Millisecond)
	assert.ErrorIs(t, err, orientation.ErrInvalidOrientation)
}

func TestOpenSource(t *testing.T) {
	cfg := config.Defaults()

	src, err := openSource(cfg, nil)
	require.NoError(t, err)
	_, ok := src.(*orientation.MockSource)
	assert.True(t, ok)
	require.NoError(t, src.Close())

	cfg.OrientationSource = "mqtt"
	_, err = openSource(cfg, nil)
	assert.Error(t, err)

	cfg.OrientationSource = "usb"
	_, err = openSource(cfg, nil)
	assert.Error(t, err)
}

func TestRigParams(t *testing.T) {
	cfg := config.Defaults()
	cfg.CameraComposeQuat = true
	p := rigParams(cfg)

	want := camera.DefaultParams()
	want.Compose = true
	assert.Equal(t, want, p)
}

func TestWeb_APICamera(t *testing.T) {
	store := &stateStore{}
	srv := httptest.NewServer(newWebMux(store, t.TempDir()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/camera")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	store.set(camera.State{Session: "abc", Seq: 7})

	resp, err = http.Get(srv.URL + "/api/camera")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got camera.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "abc", got.Session)
	assert.Equal(t, uint64(7), got.Seq)
}

func TestWeb_WebsocketStream(t *testing.T) {
	store := &stateStore{}
	srv := httptest.NewServer(newWebMux(store, t.TempDir()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	store.set(camera.State{Session: "s1", Seq: 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got camera.State
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "s1", got.Session)

	store.set(camera.State{Session: "s1", Seq: 2})
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint64(2), got.Seq)
}

func litPixels(pix []byte) int {
	n := 0
	for _, b := range pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestRenderReadout(t *testing.T) {
	waiting := renderReadout(camera.State{}, false)
	assert.Equal(t, displayW, waiting.Bounds().Dx())
	assert.Equal(t, displayH, waiting.Bounds().Dy())
	assert.Positive(t, litPixels(waiting.Pix))

	st := camera.State{Quaternion: orientation.FromEuler(orientation.Euler{X: 40})}
	st.Rotation = orientation.Identity
	data := renderReadout(st, true)
	assert.Positive(t, litPixels(data.Pix))
	assert.NotEqual(t, waiting.Pix, data.Pix)
}

func TestFormatLines(t *testing.T) {
	q := orientation.Quaternion{X: 0, Y: 0, Z: 1, W: 0}
	assert.Equal(t, "[QUAT] Quaternion: (0.000, 0.000, 1.000, 0.000)", formatQuaternionLine(q))

	st := camera.State{Pose: orientation.Pose{Roll: 1, Pitch: 2, Yaw: 3}}
	st.Rotation = orientation.Identity
	line := formatCameraLine(st)
	assert.Contains(t, line, "Camera: (0.000, 0.000, 0.000, 1.000)")
	assert.Contains(t, line, "ROLL=  1.00")
}
