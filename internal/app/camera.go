// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_camera/internal/camera"
	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
	"github.com/relabs-tech/imu_camera/internal/session"
)

// cameraLoop turns session samples into camera states, one per tick.
type cameraLoop struct {
	sess     *session.Session
	rig      *camera.Rig
	controls atomic.Pointer[camera.Controls]
	lastTick time.Time
}

func newCameraLoop(sess *session.Session, params camera.Params) *cameraLoop {
	return &cameraLoop{sess: sess, rig: camera.NewRig(params)}
}

func (l *cameraLoop) setControls(c camera.Controls) { l.controls.Store(&c) }

func (l *cameraLoop) tick(t time.Time, frameInterval time.Duration) (camera.State, error) {
	dt := frameInterval.Seconds()
	if !l.lastTick.IsZero() {
		dt = t.Sub(l.lastTick).Seconds()
	}
	l.lastTick = t

	rel, smp, err := l.sess.Relative()
	if err != nil {
		return camera.State{}, err
	}

	var ctrl camera.Controls
	if c := l.controls.Load(); c != nil {
		ctrl = *c
	}

	return camera.State{
		Session:    l.sess.ID.String(),
		Started:    l.sess.Started,
		Seq:        smp.Seq,
		Time:       t,
		SampleTime: smp.Time,
		Origin:     l.sess.Origin(),
		Quaternion: smp.Q,
		Relative:   rel,
		Pose:       orientation.PoseFromQuaternion(rel),
		Frame:      l.rig.Step(rel, ctrl, dt),
	}, nil
}

func rigParams(cfg *config.Config) camera.Params {
	return camera.Params{
		Speed:             cfg.CameraSpeed,
		MaxStrafeVelocity: cfg.CameraMaxStrafe,
		MaxLiftVelocity:   cfg.CameraMaxLift,
		MaxFallVelocity:   cfg.CameraMaxFall,
		YawInfluence:      cfg.CameraYawInfluence,
		TurnStep:          cfg.CameraTurnStep,
		Compose:           cfg.CameraComposeQuat,
	}
}

// openSource builds the configured orientation source. client may be nil
// for the mock source.
func openSource(cfg *config.Config, client mqtt.Client) (orientation.Source, error) {
	switch cfg.OrientationSource {
	case "mock":
		log.Println("using mock orientation source")
		return orientation.NewMockSource(time.Duration(cfg.QuaternionPeriodMS) * time.Millisecond), nil
	case "mqtt":
		if client == nil {
			return nil, fmt.Errorf("mqtt orientation source needs an MQTT client")
		}
		return orientation.NewMQTTSource(client, cfg.TopicQuaternion)
	default:
		return nil, fmt.Errorf("unknown orientation source %q", cfg.OrientationSource)
	}
}

func startSession(ctx context.Context, cfg *config.Config, src orientation.Source) (*session.Session, error) {
	policy, err := session.ParsePolicy(cfg.OrientationPolicy)
	if err != nil {
		return nil, err
	}
	return session.Start(ctx, src, session.Options{
		Policy:        policy,
		OriginTimeout: time.Duration(cfg.OriginTimeoutMS) * time.Millisecond,
	})
}

// RunCamera captures the origin, then publishes a camera state on every frame tick.
func RunCamera(ctx context.Context) error {
	log.Println("starting imu-camera controller")
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCamera)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src, err := openSource(cfg, client)
	if err != nil {
		return err
	}
	sess, err := startSession(ctx, cfg, src)
	if err != nil {
		_ = src.Close()
		return err
	}
	defer sess.Close()

	frameInterval := time.Duration(cfg.FrameIntervalMS) * time.Millisecond
	loop := newCameraLoop(sess, rigParams(cfg))

	if cfg.TopicControls != "" {
		if err := subscribeJSON(client, cfg.TopicControls, loop.setControls); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	logEvery := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var lastLog time.Time

	log.Printf("camera: session %s running at %v per frame", sess.ID, frameInterval)
	for {
		select {
		case <-ctx.Done():
			log.Println("camera: shutting down")
			return nil
		case t := <-ticker.C:
			state, err := loop.tick(t, frameInterval)
			if err != nil {
				log.Printf("camera: %v", err)
				continue
			}
			if err := publishJSON(client, cfg.TopicCamera, true, state); err != nil {
				log.Printf("camera: %v", err)
				continue
			}
			if t.Sub(lastLog) >= logEvery {
				lastLog = t
				log.Printf("camera: seq=%d q=%v rel=%v pos=(%.1f, %.1f, %.1f) turn=%.2f",
					state.Seq, state.Quaternion, state.Relative,
					state.Position.X, state.Position.Y, state.Position.Z, state.TurnDeg)
			}
		}
	}
}
