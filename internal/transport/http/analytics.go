package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/validation"
)

// respondAnalytics finishes an analytics request: validation failures
// surface as 400 with field details, anything else as a generic 500 with
// the detail kept server-side.
func respondAnalytics(w http.ResponseWriter, started time.Time, data any, count *int, err error) {
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			respondError(w, http.StatusBadRequest, "Validation failed", verrs)
			return
		}
		log.Printf("analytics request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute analytics", nil)
		return
	}
	respondData(w, started, data, count)
}

func (s *Server) handleFleetAnalytics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateAnalyticsQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeAnalyticsParams(r.URL.Query())

	data, err := s.analytics.FleetAnalytics(r.Context(), q)
	respondAnalytics(w, started, data, nil, err)
}

func (s *Server) handleActivityStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateActivityQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeActivityParams(r.URL.Query())

	data, err := s.analytics.ActivityStatus(r.Context(), q)
	respondAnalytics(w, started, data, nil, err)
}

func (s *Server) handleFuelAnalytics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateAnalyticsQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeAnalyticsParams(r.URL.Query())

	data, err := s.analytics.FuelAnalytics(r.Context(), q)
	respondAnalytics(w, started, data, nil, err)
}

func (s *Server) handleDistanceAnalytics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateAnalyticsQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeAnalyticsParams(r.URL.Query())

	data, err := s.analytics.DistanceAnalytics(r.Context(), q)
	respondAnalytics(w, started, data, nil, err)
}

func (s *Server) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateAlertSummaryQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeAlertSummaryParams(r.URL.Query())

	data, err := s.analytics.AlertSummary(r.Context(), q)
	respondAnalytics(w, started, data, nil, err)
}

func (s *Server) handleVehicleActivity(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateActivityQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeActivityParams(r.URL.Query())

	data, err := s.analytics.VehicleActivityDetails(r.Context(), q)
	count := len(data)
	respondAnalytics(w, started, data, &count, err)
}

func (s *Server) handleVehicleDistances(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if errs := validation.ValidateAnalyticsQuery(r.URL.Query()); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", errs)
		return
	}
	q := validation.SanitizeAnalyticsParams(r.URL.Query())

	data, err := s.analytics.VehicleDistanceDetails(r.Context(), q)
	count := len(data)
	respondAnalytics(w, started, data, &count, err)
}

func (s *Server) handleVehicleFuel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	data, err := s.analytics.VehicleFuelStatuses(r.Context())
	count := len(data)
	respondAnalytics(w, started, data, &count, err)
}

func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var body struct {
		FleetID string `json:"fleetId"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
			return
		}
	}

	s.analytics.RefreshCache(r.Context(), body.FleetID)
	respondData(w, started, map[string]string{"message": "Analytics cache refreshed"}, nil)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondData(w, started, s.analytics.CacheStats(), nil)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	s.analytics.ClearCache()
	respondData(w, started, map[string]string{"message": "Analytics cache cleared"}, nil)
}

func (s *Server) handleAnalyticsHealth(w http.ResponseWriter, r *http.Request) {
	h := s.analytics.Health(r.Context())
	status := http.StatusOK
	if h.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}
