package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fleet-telemetry/backend/internal/domain"
)

func envelopeOK(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
}

func TestFleetAnalyticsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analytics/fleet" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("fleetId") != "F1" {
			t.Errorf("fleetId = %s", r.URL.Query().Get("fleetId"))
		}
		envelopeOK(t, w, domain.FleetAnalytics{TotalVehicles: 7, AverageFuelLevel: 40.5})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.FleetAnalytics(context.Background(), Params{FleetID: "F1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalVehicles != 7 || got.AverageFuelLevel != 40.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "transient"})
			return
		}
		envelopeOK(t, w, domain.DistanceAnalytics{TotalDistance: 50})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(3, time.Millisecond))
	got, err := c.DistanceAnalytics(context.Background(), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalDistance != 50 {
		t.Fatalf("got %+v", got)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("server hit %d times, want 3", n)
	}
}

func TestGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(3, time.Millisecond))
	_, err := c.AlertSummary(context.Background(), Params{})

	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadGateway {
		t.Fatalf("err = %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("server hit %d times, want 3", n)
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Validation failed"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(3, time.Millisecond))
	_, err := c.FleetAnalytics(context.Background(), Params{TimeWindow: 9000})

	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if he.Message != "Validation failed" {
		t.Fatalf("message = %s", he.Message)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("server hit %d times, want 1 (no retry on client errors)", n)
	}
}

func TestBackoffDoubles(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRetry(3, 40*time.Millisecond))
	c.FleetAnalytics(context.Background(), Params{})

	if len(stamps) != 3 {
		t.Fatalf("got %d attempts, want 3", len(stamps))
	}
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	if first < 40*time.Millisecond {
		t.Fatalf("first delay %v, want >= 40ms", first)
	}
	if second < 80*time.Millisecond {
		t.Fatalf("second delay %v, want >= 80ms (doubled)", second)
	}
}

func TestContextCancelStopsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL, WithRetry(5, time.Second))
	_, err := c.FuelAnalytics(ctx, Params{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestRetriesOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	c := New(srv.URL, WithRetry(2, time.Millisecond))
	_, err := c.VehicleFuel(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var he *HTTPError
	if errors.As(err, &he) {
		t.Fatalf("transport failure must not be an HTTPError: %v", err)
	}
}

func TestHealthDecodesBareDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms := int64(12)
		json.NewEncoder(w).Encode(domain.AnalyticsHealth{Status: "healthy", CacheSize: 4, ResponseTime: &ms})
	}))
	defer srv.Close()

	h, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" || h.CacheSize != 4 || h.ResponseTime == nil {
		t.Fatalf("got %+v", h)
	}
}

func TestRefreshCacheSendsFleet(t *testing.T) {
	var gotFleet string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FleetID string `json:"fleetId"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotFleet = body.FleetID
		envelopeOK(t, w, map[string]string{"message": "Analytics cache refreshed"})
	}))
	defer srv.Close()

	if err := New(srv.URL).RefreshCache(context.Background(), "F1"); err != nil {
		t.Fatal(err)
	}
	if gotFleet != "F1" {
		t.Fatalf("fleetId = %q, want F1", gotFleet)
	}
}
