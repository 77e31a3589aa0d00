package analytics

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"testing"
	"time"

	"fleet-telemetry/backend/internal/cache"
	"fleet-telemetry/backend/internal/domain"
)

const testVIN = "1HGCM82633A004352"

type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int

	totalVehicles  int
	activeVehicles int
	avgFuel        float64
	spans          []domain.OdometerSpan
	lastSeen       []domain.VehicleLastSeen
	fuel           []domain.FuelReading
	byType         map[string]int
	bySeverity     map[string]int
	totalAlerts    int
	err            error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calls:      make(map[string]int),
		byType:     map[string]int{},
		bySeverity: map[string]int{},
	}
}

func (f *fakeStore) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) TotalVehicleCount(ctx context.Context, fleetID string) (int, error) {
	f.count("TotalVehicleCount")
	return f.totalVehicles, f.err
}

func (f *fakeStore) ActiveVehicleCount(ctx context.Context, fleetID string, since time.Time) (int, error) {
	f.count("ActiveVehicleCount")
	return f.activeVehicles, f.err
}

func (f *fakeStore) AverageFuelLevel(ctx context.Context, fleetID string) (float64, error) {
	f.count("AverageFuelLevel")
	return f.avgFuel, f.err
}

func (f *fakeStore) OdometerSpans(ctx context.Context, since time.Time) ([]domain.OdometerSpan, error) {
	f.count("OdometerSpans")
	return f.spans, f.err
}

func (f *fakeStore) VehicleLastSeen(ctx context.Context) ([]domain.VehicleLastSeen, error) {
	f.count("VehicleLastSeen")
	return f.lastSeen, f.err
}

func (f *fakeStore) LatestFuelReadings(ctx context.Context) ([]domain.FuelReading, error) {
	f.count("LatestFuelReadings")
	return f.fuel, f.err
}

func (f *fakeStore) AlertCounts(ctx context.Context, since time.Time, resolved *bool) (map[string]int, map[string]int, int, error) {
	f.count("AlertCounts")
	return f.byType, f.bySeverity, f.totalAlerts, f.err
}

func newTestService(fs *fakeStore, ttl time.Duration) *Service {
	return NewService(fs, cache.New(), ttl, 0, log.New(log.Writer(), "test: ", 0))
}

func TestFleetAnalyticsEndToEnd(t *testing.T) {
	fs := newFakeStore()
	fs.totalVehicles = 1
	fs.activeVehicles = 1
	fs.avgFuel = 40
	fs.spans = []domain.OdometerSpan{{VehicleVIN: testVIN, MinOdometer: 1000, MaxOdometer: 1050}}
	fs.byType = map[string]int{"LowFuel": 1}
	fs.bySeverity = map[string]int{"High": 1}
	fs.totalAlerts = 1

	svc := newTestService(fs, time.Minute)

	got, err := svc.FleetAnalytics(context.Background(), domain.AnalyticsQuery{})
	if err != nil {
		t.Fatalf("FleetAnalytics: %v", err)
	}
	if got.TotalVehicles != 1 || got.ActiveVehicles != 1 || got.InactiveVehicles != 0 {
		t.Fatalf("counts: %+v", got)
	}
	if got.AverageFuelLevel != 40 {
		t.Fatalf("avg fuel = %v, want 40", got.AverageFuelLevel)
	}
	if got.TotalDistanceLast24h != 50 {
		t.Fatalf("distance = %v, want 50", got.TotalDistanceLast24h)
	}
	if got.AlertSummary.Total != 1 || got.AlertSummary.ByType["LowFuel"] != 1 {
		t.Fatalf("alert summary: %+v", got.AlertSummary)
	}
}

func TestInactiveCountFloorsAtZero(t *testing.T) {
	fs := newFakeStore()
	// More active VINs than registered vehicles (orphaned telemetry).
	fs.totalVehicles = 2
	fs.activeVehicles = 5

	svc := newTestService(fs, time.Minute)

	got, err := svc.ActivityStatus(context.Background(), domain.ActivityQuery{})
	if err != nil {
		t.Fatalf("ActivityStatus: %v", err)
	}
	if got.Inactive != 0 {
		t.Fatalf("inactive = %d, want 0", got.Inactive)
	}
}

func TestRepeatCallServedFromCache(t *testing.T) {
	fs := newFakeStore()
	fs.totalVehicles = 3
	svc := newTestService(fs, time.Minute)

	ctx := context.Background()
	q := domain.AnalyticsQuery{FleetID: "F1"}
	if _, err := svc.FleetAnalytics(ctx, q); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FleetAnalytics(ctx, q); err != nil {
		t.Fatal(err)
	}

	if n := fs.callCount("TotalVehicleCount"); n != 1 {
		t.Fatalf("store hit %d times, want 1 (second call must come from cache)", n)
	}
}

func TestExpiredEntryRecomputed(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, 10*time.Millisecond)

	ctx := context.Background()
	if _, err := svc.AlertSummary(ctx, domain.AlertSummaryQuery{}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := svc.AlertSummary(ctx, domain.AlertSummaryQuery{}); err != nil {
		t.Fatal(err)
	}

	if n := fs.callCount("AlertCounts"); n != 2 {
		t.Fatalf("store hit %d times, want 2 after TTL expiry", n)
	}
}

func TestTimeWindowBoundRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Minute)

	_, err := svc.FleetAnalytics(context.Background(), domain.AnalyticsQuery{TimeWindow: 9000})
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs[0].Field != "timeWindow" {
		t.Fatalf("field = %s, want timeWindow", verrs[0].Field)
	}
}

func TestStoreErrorNotCached(t *testing.T) {
	fs := newFakeStore()
	fs.err = errors.New("connection refused")
	svc := newTestService(fs, time.Minute)

	ctx := context.Background()
	if _, err := svc.DistanceAnalytics(ctx, domain.AnalyticsQuery{}); err == nil {
		t.Fatal("expected error")
	}

	fs.err = nil
	if _, err := svc.DistanceAnalytics(ctx, domain.AnalyticsQuery{}); err != nil {
		t.Fatalf("recovered store must serve: %v", err)
	}
	if n := fs.callCount("OdometerSpans"); n != 2 {
		t.Fatalf("store hit %d times, want 2 (failure must not be cached)", n)
	}
}

func TestRefreshScopedToFleet(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, time.Minute)
	ctx := context.Background()

	if _, err := svc.DistanceAnalytics(ctx, domain.AnalyticsQuery{FleetID: "F1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DistanceAnalytics(ctx, domain.AnalyticsQuery{FleetID: "F2"}); err != nil {
		t.Fatal(err)
	}

	svc.RefreshCache(ctx, "F1")

	keys := svc.CacheStats().Keys
	if !slices.Contains(keys, "distance_analytics_F2_24") {
		t.Fatalf("F2 entry must survive an F1 refresh, keys: %v", keys)
	}
	// F1 was invalidated and immediately rewarmed by the refresh.
	if !slices.Contains(keys, "distance_analytics_F1_24") {
		t.Fatalf("F1 entry should be rewarmed, keys: %v", keys)
	}
}

func TestRefreshWithoutFleetWarmsPrimaryViews(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, time.Minute)

	svc.RefreshCache(context.Background(), "")

	keys := svc.CacheStats().Keys
	want := []string{
		"fleet_analytics_all_24",
		"activity_status_all_24_24",
		"fuel_analytics_all",
		"distance_analytics_all_24",
		"alert_summary_all_24_all",
	}
	for _, k := range want {
		if !slices.Contains(keys, k) {
			t.Errorf("missing warmed key %s (have %v)", k, keys)
		}
	}
}

func TestRefreshSwallowsStoreErrors(t *testing.T) {
	fs := newFakeStore()
	fs.err = errors.New("db down")
	svc := newTestService(fs, time.Minute)

	// Must not panic or propagate anything.
	svc.RefreshCache(context.Background(), "F1")

	if n := svc.CacheStats().Size; n != 0 {
		t.Fatalf("failed warmups must not populate the cache, size=%d", n)
	}
}

func TestVehicleActivityDetailsNotCached(t *testing.T) {
	fs := newFakeStore()
	seen := time.Now().Add(-48 * time.Hour)
	fs.lastSeen = []domain.VehicleLastSeen{
		{VehicleVIN: testVIN, LastTelemetryTime: &seen},
		{VehicleVIN: "NEVERSEEN000000"},
	}
	svc := newTestService(fs, time.Minute)
	ctx := context.Background()

	details, err := svc.VehicleActivityDetails(ctx, domain.ActivityQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(details) != 2 {
		t.Fatalf("got %d details, want 2", len(details))
	}
	if details[0].IsActive {
		t.Fatal("48h-stale vehicle must be inactive in a 24h window")
	}
	if details[1].HoursInactive != nil {
		t.Fatal("never-reported vehicle must have nil hoursInactive")
	}

	if _, err := svc.VehicleActivityDetails(ctx, domain.ActivityQuery{}); err != nil {
		t.Fatal(err)
	}
	if n := fs.callCount("VehicleLastSeen"); n != 2 {
		t.Fatalf("detail listing must read through every time, hits=%d", n)
	}
}

func TestHealthGrades(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, time.Minute)

	h := svc.Health(context.Background())
	if h.Status != "healthy" {
		t.Fatalf("status = %s, want healthy", h.Status)
	}
	if h.ResponseTime == nil {
		t.Fatal("healthy probe must report a response time")
	}

	fs.err = errors.New("db down")
	h = svc.Health(context.Background())
	if h.Status != "unhealthy" {
		t.Fatalf("status = %s, want unhealthy", h.Status)
	}
	if h.ResponseTime != nil {
		t.Fatal("failed probe must not report a response time")
	}
}
