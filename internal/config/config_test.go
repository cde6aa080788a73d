// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imu_camera_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
# broker on the Pi
MQTT_BROKER = tcp://pi.local:1883
ORIENTATION_SOURCE=mqtt
ORIENTATION_POLICY=strict
QUATERNION_PERIOD_MS=10
CAMERA_SPEED=42.5
CAMERA_COMPOSE_QUATERNION=true
DISPLAY_I2C_BUS=1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://pi.local:1883", cfg.MQTTBroker)
	assert.Equal(t, "mqtt", cfg.OrientationSource)
	assert.Equal(t, "strict", cfg.OrientationPolicy)
	assert.Equal(t, 10, cfg.QuaternionPeriodMS)
	assert.Equal(t, 42.5, cfg.CameraSpeed)
	assert.True(t, cfg.CameraComposeQuat)
	assert.Equal(t, "1", cfg.DisplayI2CBus)

	// Untouched keys keep their defaults.
	assert.Equal(t, 25.0, cfg.CameraMaxLift)
	assert.Equal(t, "imu/camera", cfg.TopicCamera)
	assert.Equal(t, 8080, cfg.WebServerPort)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"no equals":      "MQTT_BROKER\n",
		"unknown key":    "NOT_A_KEY=1\n",
		"bad source":     "ORIENTATION_SOURCE=usb\n",
		"bad policy":     "ORIENTATION_POLICY=maybe\n",
		"bad period":     "QUATERNION_PERIOD_MS=0\n",
		"bad float":      "CAMERA_SPEED=fast\n",
		"bad bool":       "CAMERA_COMPOSE_QUATERNION=perhaps\n",
		"bad port":       "WEB_SERVER_PORT=70000\n",
		"empty broker":   "MQTT_BROKER=\n",
		"negative speed": "CAMERA_MAX_FALL=-1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReportsLineNumber(t *testing.T) {
	_, err := Load(writeConfig(t, "# header\n\nCAMERA_SPEED=x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestInitGlobal(t *testing.T) {
	require.NoError(t, InitGlobal(writeConfig(t, "CAMERA_SPEED=7\n")))
	require.NotNil(t, Get())
	assert.Equal(t, 7.0, Get().CameraSpeed)

	// Later calls keep the first config.
	require.NoError(t, InitGlobal(writeConfig(t, "CAMERA_SPEED=9\n")))
	assert.Equal(t, 7.0, Get().CameraSpeed)
}
