// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDCamera  string
	MQTTClientIDSim     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicQuaternion string
	TopicCamera     string
	TopicControls   string

	// Orientation
	OrientationSource  string // "mock" or "mqtt"
	OrientationPolicy  string // "propagate" or "strict"
	QuaternionPeriodMS int
	OriginTimeoutMS    int

	// Camera rig
	FrameIntervalMS    int
	CameraSpeed        float64
	CameraMaxStrafe    float64
	CameraMaxLift      float64
	CameraMaxFall      float64
	CameraYawInfluence float64
	CameraTurnStep     float64
	CameraComposeQuat  bool
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Package-level singleton, set once by InitGlobal and read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDCamera:  "imu-camera",
		MQTTClientIDSim:     "imu-camera-sim",
		MQTTClientIDConsole: "imu-camera-console",
		MQTTClientIDWeb:     "imu-camera-web",
		MQTTClientIDDisplay: "imu-camera-display",

		TopicQuaternion: "imu/quaternion",
		TopicCamera:     "imu/camera",
		TopicControls:   "imu/camera/controls",

		OrientationSource:  "mock",
		OrientationPolicy:  "propagate",
		QuaternionPeriodMS: 10,
		OriginTimeoutMS:    5000,

		FrameIntervalMS:    16,
		CameraSpeed:        100,
		CameraMaxStrafe:    100,
		CameraMaxLift:      25,
		CameraMaxFall:      50,
		CameraYawInfluence: 0.01,
		CameraTurnStep:     1,
		ConsoleLogInterval: 1000,

		WebServerPort: 8080,

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file on top of Defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parsePositiveInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0, got %d", key, v)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CAMERA":
		c.MQTTClientIDCamera = value
	case "MQTT_CLIENT_ID_SIM":
		c.MQTTClientIDSim = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_QUATERNION":
		c.TopicQuaternion = value
	case "TOPIC_CAMERA":
		c.TopicCamera = value
	case "TOPIC_CONTROLS":
		c.TopicControls = value

	// Orientation
	case "ORIENTATION_SOURCE":
		if value != "mock" && value != "mqtt" {
			return fmt.Errorf("ORIENTATION_SOURCE must be mock or mqtt, got %q", value)
		}
		c.OrientationSource = value
	case "ORIENTATION_POLICY":
		if value != "propagate" && value != "strict" {
			return fmt.Errorf("ORIENTATION_POLICY must be propagate or strict, got %q", value)
		}
		c.OrientationPolicy = value
	case "QUATERNION_PERIOD_MS":
		c.QuaternionPeriodMS, err = parsePositiveInt(key, value)
	case "ORIGIN_TIMEOUT_MS":
		c.OriginTimeoutMS, err = parsePositiveInt(key, value)

	// Camera rig
	case "FRAME_INTERVAL_MS":
		c.FrameIntervalMS, err = parsePositiveInt(key, value)
	case "CAMERA_SPEED":
		c.CameraSpeed, err = parseFloat(key, value)
	case "CAMERA_MAX_STRAFE":
		c.CameraMaxStrafe, err = parseFloat(key, value)
	case "CAMERA_MAX_LIFT":
		c.CameraMaxLift, err = parseFloat(key, value)
	case "CAMERA_MAX_FALL":
		c.CameraMaxFall, err = parseFloat(key, value)
	case "CAMERA_YAW_INFLUENCE":
		c.CameraYawInfluence, err = parseFloat(key, value)
	case "CAMERA_TURN_STEP":
		c.CameraTurnStep, err = parseFloat(key, value)
	case "CAMERA_COMPOSE_QUATERNION":
		c.CameraComposeQuat, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("invalid CAMERA_COMPOSE_QUATERNION %q: %w", value, err)
		}
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parsePositiveInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		port, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, perr)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parsePositiveInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicQuaternion == "" {
		return fmt.Errorf("TOPIC_QUATERNION is required")
	}
	if c.TopicCamera == "" {
		return fmt.Errorf("TOPIC_CAMERA is required")
	}
	if c.CameraMaxFall < 0 || c.CameraMaxLift < 0 || c.CameraMaxStrafe < 0 {
		return fmt.Errorf("camera velocities must not be negative")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
