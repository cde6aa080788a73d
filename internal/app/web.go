// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu_camera/internal/camera"
	"github.com/relabs-tech/imu_camera/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsPollInterval is how often a websocket client checks for a newer state.
const wsPollInterval = 20 * time.Millisecond

// stateStore keeps the most recent camera state received from the broker.
type stateStore struct {
	mu      sync.RWMutex
	last    camera.State
	version uint64
}

func (s *stateStore) set(st camera.State) {
	s.mu.Lock()
	s.last = st
	s.version++
	s.mu.Unlock()
}

// get returns the state and its version; version 0 means no data yet.
func (s *stateStore) get() (camera.State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.version
}

func newWebMux(store *stateStore, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// JSON API endpoint: latest camera state
	mux.HandleFunc("/api/camera", func(w http.ResponseWriter, r *http.Request) {
		st, version := store.get()
		if version == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Websocket stream: every new camera state, in order, skipping stale ones.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		// Drain client frames so close messages are noticed.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Printf("web: websocket error: %v", err)
					}
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPollInterval)
		defer ticker.Stop()

		var sent uint64
		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				st, version := store.get()
				if version == sent {
					continue
				}
				if err := conn.WriteJSON(st); err != nil {
					log.Printf("web: websocket write error: %v", err)
					return
				}
				sent = version
			}
		}
	})

	// Static files as the root
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb serves the latest camera state over HTTP and websocket.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	store := &stateStore{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicCamera, store.set); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: newWebMux(store, "web"),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
