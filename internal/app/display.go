// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_camera/internal/camera"
	"github.com/relabs-tech/imu_camera/internal/config"
	"github.com/relabs-tech/imu_camera/internal/orientation"
)

const (
	displayW = 128
	displayH = 64
)

// drawLines renders up to four 7x13 text lines onto a blank frame.
func drawLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

func quatLines(label string, q orientation.Quaternion) []string {
	return []string{
		fmt.Sprintf("%s %6.3f %6.3f", label, q.X, q.Y),
		fmt.Sprintf("  %6.3f %6.3f", q.Z, q.W),
	}
}

// renderReadout is the debug box: sensor quaternion on top, camera rotation below.
func renderReadout(st camera.State, haveData bool) *image1bit.VerticalLSB {
	if !haveData {
		return drawLines("IMU Camera", "Waiting...")
	}
	return drawLines(append(quatLines("Q", st.Quaternion), quatLines("C", st.Rotation)...)...)
}

// RunDisplay mirrors camera states onto an SSD1306 OLED.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized on I2C bus %q", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderReadout(camera.State{}, false), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	store := &stateStore{}
	if err := subscribeJSON(client, cfg.TopicCamera, store.set); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	var drawn uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st, version := store.get()
			if version == drawn {
				continue
			}
			if err := dev.Draw(dev.Bounds(), renderReadout(st, version > 0), image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
				continue
			}
			drawn = version
		}
	}
}
