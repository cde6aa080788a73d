// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// WireSample is the JSON payload on the quaternion topic.
type WireSample struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
	W    float32 `json:"w"`
	Time string  `json:"time,omitempty"` // RFC3339Nano
}

// NewWireSample encodes q captured at t.
func NewWireSample(q Quaternion, t time.Time) WireSample {
	return WireSample{X: q.X, Y: q.Y, Z: q.Z, W: q.W, Time: t.Format(time.RFC3339Nano)}
}

func (w WireSample) Quaternion() Quaternion {
	return Quaternion{X: w.X, Y: w.Y, Z: w.Z, W: w.W}
}

// MQTTSource feeds a Latest from quaternion samples published on a topic.
type MQTTSource struct {
	client mqtt.Client
	topic  string
	latest *Latest
	now    func() time.Time
}

// NewMQTTSource subscribes to topic on an already connected client.
// Close unsubscribes but leaves the client connected.
func NewMQTTSource(client mqtt.Client, topic string) (*MQTTSource, error) {
	s := &MQTTSource{
		client: client,
		topic:  topic,
		latest: NewLatest(),
		now:    time.Now,
	}

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.handle(msg.Payload()); err != nil {
			log.Printf("orientation: %s: %v", topic, err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("orientation: subscribed to %s", topic)
	return s, nil
}

// handle decodes one payload and publishes it. Samples without a valid
// timestamp are stamped with the receive time.
func (s *MQTTSource) handle(payload []byte) error {
	var w WireSample
	if err := json.Unmarshal(payload, &w); err != nil {
		return fmt.Errorf("unmarshal sample: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, w.Time)
	if err != nil {
		t = s.now()
	}
	s.latest.Publish(w.Quaternion(), t)
	return nil
}

func (s *MQTTSource) LatestOrientation() Quaternion { return s.latest.Quaternion() }

func (s *MQTTSource) Samples() *Latest { return s.latest }

func (s *MQTTSource) Close() error {
	if s.client == nil {
		return nil
	}
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	return token.Error()
}
