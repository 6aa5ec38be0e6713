package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/fadepin/internal/core/domain"
	"github.com/samirrijal/fadepin/internal/core/usecases"
	"github.com/samirrijal/fadepin/internal/pkg/metrics"
)

// wsMessage is sent from client to report its location or place a marker.
type wsMessage struct {
	Action string   `json:"action"` // "locate" | "locate_error" | "add"
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Radius float64  `json:"radius"` // km, optional on "locate"
	Reason string   `json:"reason"` // on "locate_error"
	Type   string   `json:"type"`   // on "add"
}

// wsEvent is pushed from server to client.
type wsEvent struct {
	Event  string         `json:"event"` // "view" | "added" | "error"
	View   *usecases.View `json:"view,omitempty"`
	Marker *domain.Marker `json:"marker,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// WebSocketHandler returns a handler that keeps a connected client's view up
// to date. Each connection has its own observer location; a fresh view is
// pushed on every marker change and every refresh interval.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remoteAddr)
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		tracker := usecases.NewLocationTracker(deps.DefaultOrigin)
		var radiusMu sync.Mutex
		radius := 0.0

		pushView := func() error {
			radiusMu.Lock()
			r := radius
			radiusMu.Unlock()
			view := deps.Views.View(tracker.Current(), r)
			return writeJSON(wsEvent{Event: "view", View: &view})
		}

		// Store listeners must not block; coalesce change signals.
		changed := make(chan struct{}, 1)
		unsubscribe := deps.Views.Store().Subscribe(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		refresh := deps.RefreshInterval
		if refresh <= 0 {
			refresh = time.Second
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(refresh)
			defer ticker.Stop()
			ping := time.NewTicker(30 * time.Second)
			defer ping.Stop()
			for {
				var err error
				select {
				case <-changed:
					err = pushView()
				case <-ticker.C:
					err = pushView()
				case <-ping.C:
					mu.Lock()
					err = c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
				case <-done:
					return
				}
				if err != nil {
					return
				}
			}
		}()

		_ = pushView()

		ctx := WithLogger(context.Background(), logger)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Event: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "locate":
				if m.Lat == nil || m.Lng == nil {
					_ = writeJSON(wsEvent{Event: "error", Error: "lat and lng are required"})
					continue
				}
				tracker.Update(domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng})
				if m.Radius > 0 {
					radiusMu.Lock()
					radius = m.Radius
					radiusMu.Unlock()
				}
				_ = pushView()

			case "locate_error":
				tracker.Fail(domain.LocationErrorReason(m.Reason))
				_ = pushView()

			case "add":
				if m.Lat == nil || m.Lng == nil {
					_ = writeJSON(wsEvent{Event: "error", Error: "lat and lng are required"})
					continue
				}
				t, err := domain.ParseMarkerType(m.Type)
				if err != nil {
					_ = writeJSON(wsEvent{Event: "error", Error: err.Error()})
					continue
				}
				marker, err := deps.Views.AddMarker(ctx, *m.Lat, *m.Lng, t)
				if err != nil {
					_ = writeJSON(wsEvent{Event: "error", Error: err.Error()})
					continue
				}
				_ = writeJSON(wsEvent{Event: "added", Marker: &marker})

			default:
				_ = writeJSON(wsEvent{Event: "error", Error: "unknown action: " + m.Action})
			}
		}

		close(done)
		logger.Info("ws client disconnected")
	}
}
