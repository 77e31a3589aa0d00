package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func upgradeHandler(t *testing.T) http.Handler {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn.Close()
	})
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// The middleware wraps the ResponseWriter; the wrapper must keep the
// connection hijackable or websocket handshakes fail with 500.
func TestLoggingMiddlewarePreservesHijack(t *testing.T) {
	srv := httptest.NewServer(loggingMiddleware(upgradeHandler(t)))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	if err != nil {
		t.Fatalf("dial through middleware: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
}

func TestWebsocketRouteUpgradesThroughRouter(t *testing.T) {
	st := newStubStore()
	an := &stubAnalytics{}
	srv := httptest.NewServer(NewServer(st, an, nil, upgradeHandler(t)))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/ws/alerts", nil)
	if err != nil {
		t.Fatalf("dial through full router: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
}

func TestStatusRecorderUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	if sr.Unwrap() != rec {
		t.Fatal("Unwrap must expose the underlying writer")
	}
}
