// Package analytics computes fleet-wide and per-vehicle derived metrics
// from stored telemetry and alert rows, fronted by a short-lived
// process-local result cache.
package analytics

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fleet-telemetry/backend/internal/cache"
	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/metrics"
)

const (
	// DefaultCacheTTL applies to every cached analytics view.
	DefaultCacheTTL = 300 * time.Second

	defaultQueryTimeout = 10 * time.Second
)

// Store is the aggregate query surface the service needs; implemented
// by store.Postgres and by fakes in tests.
type Store interface {
	TotalVehicleCount(ctx context.Context, fleetID string) (int, error)
	ActiveVehicleCount(ctx context.Context, fleetID string, since time.Time) (int, error)
	AverageFuelLevel(ctx context.Context, fleetID string) (float64, error)
	OdometerSpans(ctx context.Context, since time.Time) ([]domain.OdometerSpan, error)
	VehicleLastSeen(ctx context.Context) ([]domain.VehicleLastSeen, error)
	LatestFuelReadings(ctx context.Context) ([]domain.FuelReading, error)
	AlertCounts(ctx context.Context, since time.Time, resolved *bool) (byType, bySeverity map[string]int, total int, err error)
}

// Service owns the result cache for its lifetime: created with the
// service, torn down with it, no hidden globals.
type Service struct {
	store        Store
	cache        *cache.Cache
	group        singleflight.Group
	log          *log.Logger
	ttl          time.Duration
	queryTimeout time.Duration
}

func NewService(store Store, c *cache.Cache, ttl, queryTimeout time.Duration, logger *log.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:        store,
		cache:        c,
		log:          logger,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// cached serves the value from the cache when fresh, otherwise computes
// it under a singleflight group so concurrent misses for the same key
// collapse into one store round trip.
func (s *Service) cached(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return v, nil
	}
	metrics.CacheMisses.Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()

		v, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, v, s.ttl)
		return v, nil
	})
	return v, err
}

// FleetAnalytics is the fleet-wide snapshot: vehicle counts, average
// fuel, window distance and the alert summary.
func (s *Service) FleetAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.FleetAnalytics, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return domain.FleetAnalytics{}, err
	}

	v, err := s.cached(ctx, fleetAnalyticsKey(q.FleetID, tw), func(ctx context.Context) (any, error) {
		return s.computeFleetAnalytics(ctx, q.FleetID, tw)
	})
	if err != nil {
		s.fail("FleetAnalytics", started, err)
		return domain.FleetAnalytics{}, fmt.Errorf("fleet analytics: %w", err)
	}
	return v.(domain.FleetAnalytics), nil
}

func (s *Service) computeFleetAnalytics(ctx context.Context, fleetID string, tw float64) (domain.FleetAnalytics, error) {
	cutoff := time.Now().Add(-hoursToDuration(tw))

	total, err := s.store.TotalVehicleCount(ctx, fleetID)
	if err != nil {
		return domain.FleetAnalytics{}, err
	}
	active, err := s.store.ActiveVehicleCount(ctx, fleetID, cutoff)
	if err != nil {
		return domain.FleetAnalytics{}, err
	}
	avgFuel, err := s.store.AverageFuelLevel(ctx, fleetID)
	if err != nil {
		return domain.FleetAnalytics{}, err
	}
	spans, err := s.store.OdometerSpans(ctx, cutoff)
	if err != nil {
		return domain.FleetAnalytics{}, err
	}
	summary, err := s.AlertSummary(ctx, domain.AlertSummaryQuery{
		AnalyticsQuery: domain.AnalyticsQuery{FleetID: fleetID, TimeWindow: tw},
	})
	if err != nil {
		return domain.FleetAnalytics{}, err
	}

	return domain.FleetAnalytics{
		ActiveVehicles:   active,
		InactiveVehicles: max(0, total-active),
		TotalVehicles:    total,
		AverageFuelLevel: round2(avgFuel),
		// Named for the default window; computed over tw hours.
		TotalDistanceLast24h: totalDistance(spans),
		AlertSummary:         summary,
		LastUpdated:          time.Now(),
	}, nil
}

// ActivityStatus reports active/inactive counts using the inactivity
// threshold as the recency window.
func (s *Service) ActivityStatus(ctx context.Context, q domain.ActivityQuery) (domain.ActivityStatus, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return domain.ActivityStatus{}, err
	}
	thr, err := windowOrDefault("inactiveThreshold", q.InactiveThreshold)
	if err != nil {
		return domain.ActivityStatus{}, err
	}

	v, err := s.cached(ctx, activityStatusKey(q.FleetID, tw, thr), func(ctx context.Context) (any, error) {
		cutoff := time.Now().Add(-hoursToDuration(thr))
		total, err := s.store.TotalVehicleCount(ctx, q.FleetID)
		if err != nil {
			return nil, err
		}
		active, err := s.store.ActiveVehicleCount(ctx, q.FleetID, cutoff)
		if err != nil {
			return nil, err
		}
		return domain.ActivityStatus{
			Active:            active,
			Inactive:          max(0, total-active),
			InactiveThreshold: thr,
		}, nil
	})
	if err != nil {
		s.fail("ActivityStatus", started, err)
		return domain.ActivityStatus{}, fmt.Errorf("activity status: %w", err)
	}
	return v.(domain.ActivityStatus), nil
}

// FuelAnalytics reports the fleet's average fuel level and how many
// vehicles sit at or below the low/critical thresholds.
func (s *Service) FuelAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.FuelAnalytics, error) {
	started := time.Now()

	v, err := s.cached(ctx, fuelAnalyticsKey(q.FleetID), func(ctx context.Context) (any, error) {
		avg, err := s.store.AverageFuelLevel(ctx, q.FleetID)
		if err != nil {
			return nil, err
		}
		// TODO: LatestFuelReadings ignores the fleet filter, so the
		// low/critical counts are fleet-wide even when fleetId is set;
		// needs a join on vehicles to scope them.
		readings, err := s.store.LatestFuelReadings(ctx)
		if err != nil {
			return nil, err
		}

		var low, critical int
		for _, st := range fuelStatuses(readings, domain.LowFuelThreshold, domain.CriticalFuelThreshold) {
			if st.IsLowFuel {
				low++
			}
			if st.IsCriticalFuel {
				critical++
			}
		}
		return domain.FuelAnalytics{
			AverageFuelLevel:     round2(avg),
			LowFuelVehicles:      low,
			CriticalFuelVehicles: critical,
			FleetID:              q.FleetID,
			LastUpdated:          time.Now(),
		}, nil
	})
	if err != nil {
		s.fail("FuelAnalytics", started, err)
		return domain.FuelAnalytics{}, fmt.Errorf("fuel analytics: %w", err)
	}
	return v.(domain.FuelAnalytics), nil
}

// DistanceAnalytics totals the fleet's distance over the window and
// averages it per vehicle that reported within the window.
func (s *Service) DistanceAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.DistanceAnalytics, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return domain.DistanceAnalytics{}, err
	}

	v, err := s.cached(ctx, distanceAnalyticsKey(q.FleetID, tw), func(ctx context.Context) (any, error) {
		spans, err := s.store.OdometerSpans(ctx, time.Now().Add(-hoursToDuration(tw)))
		if err != nil {
			return nil, err
		}

		total := totalDistance(spans)
		avg := 0.0
		if len(spans) > 0 {
			avg = round2(total / float64(len(spans)))
		}
		return domain.DistanceAnalytics{
			TotalDistance:             total,
			AverageDistancePerVehicle: avg,
			TimeWindow:                tw,
			VehicleCount:              len(spans),
			FleetID:                   q.FleetID,
			LastUpdated:               time.Now(),
		}, nil
	})
	if err != nil {
		s.fail("DistanceAnalytics", started, err)
		return domain.DistanceAnalytics{}, fmt.Errorf("distance analytics: %w", err)
	}
	return v.(domain.DistanceAnalytics), nil
}

// AlertSummary counts alerts created within the window, grouped by type
// and severity independently.
func (s *Service) AlertSummary(ctx context.Context, q domain.AlertSummaryQuery) (domain.AlertSummary, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return domain.AlertSummary{}, err
	}

	v, err := s.cached(ctx, alertSummaryKey(q.FleetID, tw, q.Resolved), func(ctx context.Context) (any, error) {
		byType, bySeverity, total, err := s.store.AlertCounts(ctx, time.Now().Add(-hoursToDuration(tw)), q.Resolved)
		if err != nil {
			return nil, err
		}
		return domain.AlertSummary{
			ByType:      byType,
			BySeverity:  bySeverity,
			Total:       total,
			TimeWindow:  tw,
			LastUpdated: time.Now(),
		}, nil
	})
	if err != nil {
		s.fail("AlertSummary", started, err)
		return domain.AlertSummary{}, fmt.Errorf("alert summary: %w", err)
	}
	return v.(domain.AlertSummary), nil
}

// VehicleActivityDetails lists every known vehicle with hours since its
// last telemetry. Not cached; the per-vehicle listings always read
// through.
func (s *Service) VehicleActivityDetails(ctx context.Context, q domain.ActivityQuery) ([]domain.VehicleActivity, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.store.VehicleLastSeen(cctx)
	if err != nil {
		s.fail("VehicleActivityDetails", started, err)
		return nil, fmt.Errorf("vehicle activity details: %w", err)
	}
	return activityDetails(rows, time.Now(), tw), nil
}

func (s *Service) VehicleDistanceDetails(ctx context.Context, q domain.AnalyticsQuery) ([]domain.VehicleDistance, error) {
	started := time.Now()
	tw, err := windowOrDefault("timeWindow", q.TimeWindow)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	spans, err := s.store.OdometerSpans(cctx, time.Now().Add(-hoursToDuration(tw)))
	if err != nil {
		s.fail("VehicleDistanceDetails", started, err)
		return nil, fmt.Errorf("vehicle distance details: %w", err)
	}
	return distanceDetails(spans, tw), nil
}

func (s *Service) VehicleFuelStatuses(ctx context.Context) ([]domain.VehicleFuelStatus, error) {
	started := time.Now()

	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	readings, err := s.store.LatestFuelReadings(cctx)
	if err != nil {
		s.fail("VehicleFuelStatuses", started, err)
		return nil, fmt.Errorf("vehicle fuel statuses: %w", err)
	}
	return fuelStatuses(readings, domain.LowFuelThreshold, domain.CriticalFuelThreshold), nil
}

// RefreshCache drops every entry scoped to the fleet (or everything
// when no fleet is given; fleet-scoped keys always match the "all"
// marker too) and eagerly recomputes the five primary views. It is a
// best-effort warm-up: recomputation failures are logged, never
// returned.
func (s *Service) RefreshCache(ctx context.Context, fleetID string) {
	s.cache.Invalidate(func(key string) bool {
		if fleetID == "" {
			return true
		}
		return strings.Contains(key, fleetID) || strings.Contains(key, "all")
	})

	base := domain.AnalyticsQuery{FleetID: fleetID}
	warmups := []struct {
		name string
		fn   func() error
	}{
		{"fleet analytics", func() error {
			_, err := s.FleetAnalytics(ctx, base)
			return err
		}},
		{"activity status", func() error {
			_, err := s.ActivityStatus(ctx, domain.ActivityQuery{AnalyticsQuery: base})
			return err
		}},
		{"fuel analytics", func() error {
			_, err := s.FuelAnalytics(ctx, base)
			return err
		}},
		{"distance analytics", func() error {
			_, err := s.DistanceAnalytics(ctx, base)
			return err
		}},
		{"alert summary", func() error {
			_, err := s.AlertSummary(ctx, domain.AlertSummaryQuery{AnalyticsQuery: base})
			return err
		}},
	}

	errc := make(chan error, len(warmups))
	var wg sync.WaitGroup
	for _, w := range warmups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.fn(); err != nil {
				errc <- fmt.Errorf("%s: %w", w.name, err)
			}
		}()
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		s.log.Printf("cache refresh: %v", err)
	}
}

// Health probes the store and grades the service by probe latency.
func (s *Service) Health(ctx context.Context) domain.AnalyticsHealth {
	started := time.Now()

	cctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	h := domain.AnalyticsHealth{
		CacheSize:  s.cache.Len(),
		LastUpdate: time.Now(),
	}

	if _, err := s.store.TotalVehicleCount(cctx, ""); err != nil {
		s.log.Printf("analytics health probe failed: %v", err)
		h.Status = "unhealthy"
		return h
	}

	elapsed := time.Since(started).Milliseconds()
	h.ResponseTime = &elapsed
	switch {
	case elapsed < 500:
		h.Status = "healthy"
	case elapsed < 2000:
		h.Status = "degraded"
	default:
		h.Status = "unhealthy"
	}
	return h
}

func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *Service) ClearCache() {
	s.cache.Clear()
}

func (s *Service) fail(op string, started time.Time, err error) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	s.log.Printf("analytics %s failed after %dms: %v", op, time.Since(started).Milliseconds(), err)
}

// windowOrDefault applies the 24h default and enforces the 1..8760 hour
// bound before any store access happens.
func windowOrDefault(field string, hours float64) (float64, error) {
	if hours == 0 {
		return domain.DefaultTimeWindow, nil
	}
	if hours < 0 || hours > domain.MaxTimeWindow {
		return 0, domain.ValidationErrors{{
			Field:   field,
			Message: "must be between 1 and 8760 hours",
			Value:   hours,
		}}
	}
	return hours, nil
}
