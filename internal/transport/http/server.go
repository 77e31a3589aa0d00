// Package http exposes the CRUD, analytics and health endpoints over a
// gorilla/mux router with per-tier rate limiting.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fleet-telemetry/backend/internal/cache"
	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/metrics"
)

// Store is the persistence surface the handlers need; implemented by
// store.Postgres.
type Store interface {
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicleByVIN(ctx context.Context, vin string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, filter domain.VehicleFilter) ([]domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, vin string, u *domain.VehicleUpdate) (*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, vin string) error

	InsertTelemetry(ctx context.Context, t *domain.TelemetryRecord) error
	TelemetryHistory(ctx context.Context, vin string, start, end *time.Time) ([]domain.TelemetryRecord, error)
	LatestTelemetry(ctx context.Context, vin string) (*domain.TelemetryRecord, error)

	CreateAlert(ctx context.Context, a *domain.Alert) error
	GetAlert(ctx context.Context, id int64) (*domain.Alert, error)
	ResolveAlert(ctx context.Context, id int64) (*domain.Alert, error)
	CountAlerts(ctx context.Context, filter domain.AlertFilter) (int, error)

	Ping(ctx context.Context) error
}

// Analytics is the derived-metrics surface; implemented by
// analytics.Service.
type Analytics interface {
	FleetAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.FleetAnalytics, error)
	ActivityStatus(ctx context.Context, q domain.ActivityQuery) (domain.ActivityStatus, error)
	FuelAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.FuelAnalytics, error)
	DistanceAnalytics(ctx context.Context, q domain.AnalyticsQuery) (domain.DistanceAnalytics, error)
	AlertSummary(ctx context.Context, q domain.AlertSummaryQuery) (domain.AlertSummary, error)
	VehicleActivityDetails(ctx context.Context, q domain.ActivityQuery) ([]domain.VehicleActivity, error)
	VehicleDistanceDetails(ctx context.Context, q domain.AnalyticsQuery) ([]domain.VehicleDistance, error)
	VehicleFuelStatuses(ctx context.Context) ([]domain.VehicleFuelStatus, error)
	RefreshCache(ctx context.Context, fleetID string)
	Health(ctx context.Context) domain.AnalyticsHealth
	CacheStats() cache.Stats
	ClearCache()
}

// Live mirrors ingested state to redis and fans alerts out over
// pub/sub. May be nil; the mirror is best effort and never fails a
// request.
type Live interface {
	UpdateVehicleState(ctx context.Context, fleetID string, rec *domain.TelemetryRecord) error
	PublishAlert(ctx context.Context, fleetID string, payload []byte) error
	Ping(ctx context.Context) error
}

type Server struct {
	router    *mux.Router
	store     Store
	analytics Analytics
	live      Live
	limits    *limiters
}

// NewServer wires routes, middleware and rate-limit tiers. wsAlerts may
// be nil when the websocket stream is not mounted (tests).
func NewServer(store Store, analytics Analytics, live Live, wsAlerts http.Handler) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		store:     store,
		analytics: analytics,
		live:      live,
		limits:    newLimiters(),
	}
	s.routes(wsAlerts)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(wsAlerts http.Handler) {
	r := s.router
	r.Use(recoverMiddleware, loggingMiddleware, s.limits.general.middleware)

	lim := s.limits

	// Vehicles
	r.Handle("/vehicles", lim.create.wrap(s.handleCreateVehicle)).Methods(http.MethodPost)
	r.Handle("/vehicles", lim.read.wrap(s.handleListVehicles)).Methods(http.MethodGet)
	r.Handle("/vehicles/{vin}", lim.read.wrap(s.handleGetVehicle)).Methods(http.MethodGet)
	r.Handle("/vehicles/{vin}", lim.update.wrap(s.handleUpdateVehicle)).Methods(http.MethodPut)
	r.Handle("/vehicles/{vin}", lim.delete.wrap(s.handleDeleteVehicle)).Methods(http.MethodDelete)

	// Telemetry
	r.Handle("/telemetry", lim.create.wrap(s.handleIngestTelemetry)).Methods(http.MethodPost)
	r.Handle("/telemetry/{vin}/history", lim.read.wrap(s.handleTelemetryHistory)).Methods(http.MethodGet)
	r.Handle("/telemetry/{vin}/latest", lim.read.wrap(s.handleLatestTelemetry)).Methods(http.MethodGet)

	// Alerts
	r.Handle("/alerts", lim.create.wrap(s.handleCreateAlert)).Methods(http.MethodPost)
	r.Handle("/alerts/count/total", lim.read.wrap(s.handleCountAlerts)).Methods(http.MethodGet)
	r.Handle("/alerts/{id}", lim.read.wrap(s.handleGetAlert)).Methods(http.MethodGet)
	r.Handle("/alerts/{id}/resolve", lim.update.wrap(s.handleResolveAlert)).Methods(http.MethodPut)

	// Analytics
	r.Handle("/analytics/fleet", lim.read.wrap(s.handleFleetAnalytics)).Methods(http.MethodGet)
	r.Handle("/analytics/activity", lim.read.wrap(s.handleActivityStatus)).Methods(http.MethodGet)
	r.Handle("/analytics/fuel", lim.read.wrap(s.handleFuelAnalytics)).Methods(http.MethodGet)
	r.Handle("/analytics/distance", lim.read.wrap(s.handleDistanceAnalytics)).Methods(http.MethodGet)
	r.Handle("/analytics/alerts/summary", lim.read.wrap(s.handleAlertSummary)).Methods(http.MethodGet)
	r.Handle("/analytics/vehicles/activity", lim.read.wrap(s.handleVehicleActivity)).Methods(http.MethodGet)
	r.Handle("/analytics/vehicles/distances", lim.read.wrap(s.handleVehicleDistances)).Methods(http.MethodGet)
	r.Handle("/analytics/vehicles/fuel", lim.read.wrap(s.handleVehicleFuel)).Methods(http.MethodGet)
	r.Handle("/analytics/cache/refresh", lim.update.wrap(s.handleCacheRefresh)).Methods(http.MethodPost)
	r.Handle("/analytics/cache/stats", lim.read.wrap(s.handleCacheStats)).Methods(http.MethodGet)
	r.Handle("/analytics/cache", lim.delete.wrap(s.handleCacheClear)).Methods(http.MethodDelete)
	r.Handle("/analytics/health", lim.health.wrap(s.handleAnalyticsHealth)).Methods(http.MethodGet)

	// Ops
	r.Handle("/health", lim.health.wrap(s.handleHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if wsAlerts != nil {
		r.Handle("/ws/alerts", wsAlerts).Methods(http.MethodGet)
	}
}

// handleHealth probes the database (and redis when mirrored state is
// configured) with a bounded deadline.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := map[string]string{"status": "ok", "database": "up"}
	status := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if s.live != nil {
		resp["redis"] = "up"
		if err := s.live.Ping(ctx); err != nil {
			resp["redis"] = "down"
		}
	}
	writeJSON(w, status, resp)
}
