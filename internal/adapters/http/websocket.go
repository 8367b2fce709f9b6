package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/italygeo/explorer/internal/adapters/nats"
	"github.com/italygeo/explorer/internal/pkg/metrics"
)

// wsMessage is sent from client to ping or to change subscriptions.
type wsMessage struct {
	Type    string `json:"type"`    // "ping" | "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "all" | "landmarks" | "analysis" | "realtime" | "data"
}

// WebSocketHandler returns a handler that relays NATS events to connected
// clients. A new client receives every channel until it subscribes to a
// specific one; subscribing to "all" again replaces the specific ones.
//
//	{"type":"ping"}                             -> {"type":"pong","timestamp":"..."}
//	{"type":"subscribe","channel":"landmarks"}   -> {"type":"subscribed","channel":"landmarks"}
//	{"type":"unsubscribe","channel":"landmarks"} -> {"type":"unsubscribed","channel":"landmarks"}
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(channel string) error {
			subject, err := natsadapter.ChannelSubject(channel)
			if err != nil {
				return err
			}
			s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			// The server must hold the interest before the client is told
			// it is subscribed.
			if err := nc.Flush(); err != nil {
				_ = s.Unsubscribe()
				return err
			}
			subs[channel] = s
			return nil
		}

		drop := func(channel string) {
			if s, ok := subs[channel]; ok {
				_ = s.Unsubscribe()
				delete(subs, channel)
			}
		}

		if err := subscribe(natsadapter.ChannelAll); err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"type": "error", "error": "invalid JSON"})
				continue
			}

			switch m.Type {
			case "ping":
				_ = writeJSON(map[string]string{
					"type":      "pong",
					"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
				})

			case "subscribe":
				channel := m.Channel
				if channel == "" {
					channel = natsadapter.ChannelAll
				}
				if _, err := natsadapter.ChannelSubject(channel); err != nil {
					_ = writeJSON(map[string]string{"type": "error", "error": "unknown channel: " + channel})
					continue
				}
				if _, exists := subs[channel]; !exists {
					if channel == natsadapter.ChannelAll {
						for ch := range subs {
							drop(ch)
						}
					} else {
						drop(natsadapter.ChannelAll)
					}
					if err := subscribe(channel); err != nil {
						_ = writeJSON(map[string]string{"type": "error", "error": "subscribe failed: " + err.Error()})
						continue
					}
				}
				_ = writeJSON(map[string]string{"type": "subscribed", "channel": channel})

			case "unsubscribe":
				if _, exists := subs[m.Channel]; !exists {
					_ = writeJSON(map[string]string{"type": "error", "error": "not subscribed to " + m.Channel})
					continue
				}
				drop(m.Channel)
				_ = writeJSON(map[string]string{"type": "unsubscribed", "channel": m.Channel})

			default:
				_ = writeJSON(map[string]string{"type": "error", "error": "unknown message type: " + m.Type})
			}
		}

		close(done)
		for ch := range subs {
			drop(ch)
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
