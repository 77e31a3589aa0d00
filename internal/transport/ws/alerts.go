// Package ws streams alert events to dashboard clients by bridging the
// redis alert pub/sub channels onto websocket connections.
package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// AlertSource subscribes to alert events for one fleet, or for every
// fleet when fleetID is empty. Implemented by store.Redis.
type AlertSource interface {
	SubscribeAlerts(ctx context.Context, fleetID string) *redis.PubSub
}

// AlertStream upgrades HTTP requests at /ws/alerts and pumps alert
// payloads to the client until either side disconnects.
type AlertStream struct {
	source   AlertSource
	upgrader websocket.Upgrader
}

func NewAlertStream(source AlertSource) *AlertStream {
	return &AlertStream{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboard origins are not pinned; there is no auth layer
			// to pair a check with.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *AlertStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fleetID := r.URL.Query().Get("fleetId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := s.source.SubscribeAlerts(ctx, fleetID)
	defer sub.Close()

	// Read pump: the client sends nothing we care about, but reading is
	// what surfaces the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}
