package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// channelSource subscribes through a real client that never connects;
// the handshake path does not depend on a reachable broker.
type channelSource struct {
	client *redis.Client
}

func (s channelSource) SubscribeAlerts(ctx context.Context, fleetID string) *redis.PubSub {
	if fleetID == "" {
		return s.client.PSubscribe(ctx, "fleet:*:alerts")
	}
	return s.client.Subscribe(ctx, "fleet:"+fleetID+":alerts")
}

func newTestStream(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	srv := httptest.NewServer(NewAlertStream(channelSource{client: client}))
	return srv, func() {
		srv.Close()
		client.Close()
	}
}

func TestAlertStreamHandshake(t *testing.T) {
	srv, cleanup := newTestStream(t)
	defer cleanup()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?fleetId=F1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
}

func TestAlertStreamClientCloseEndsSession(t *testing.T) {
	srv, cleanup := newTestStream(t)
	defer cleanup()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// A clean client close must not wedge the handler; closing the test
	// server below would hang on a leaked session.
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}
