package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/metrics"
	"fleet-telemetry/backend/internal/validation"
)

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var a domain.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := validation.ValidateAlert(&a); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	vehicle, err := s.store.GetVehicleByVIN(r.Context(), a.VehicleVIN)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("create alert, vehicle lookup %s: %v", a.VehicleVIN, err)
		writeError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	if err := s.store.CreateAlert(r.Context(), &a); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("create alert for %s: %v", a.VehicleVIN, err)
		writeError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	// Fan the alert out to live subscribers; failures are logged only.
	if s.live != nil {
		if payload, err := json.Marshal(a); err == nil {
			go func(fleetID string) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.live.PublishAlert(ctx, fleetID, payload); err != nil {
					log.Printf("publish alert %d: %v", a.ID, err)
					return
				}
				metrics.AlertsPublished.Inc()
			}(vehicle.FleetID)
		}
	}

	writeEntity(w, http.StatusCreated, a)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Alert id must be an integer")
		return
	}

	a, err := s.store.GetAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Printf("get alert %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch alert")
		return
	}
	writeEntity(w, http.StatusOK, a)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Alert id must be an integer")
		return
	}

	a, err := s.store.ResolveAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found")
			return
		}
		log.Printf("resolve alert %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to resolve alert")
		return
	}
	writeEntity(w, http.StatusOK, a)
}

func (s *Server) handleCountAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AlertFilter{
		VehicleVIN: q.Get("vehicleVin"),
		AlertType:  q.Get("alertType"),
		Severity:   q.Get("severity"),
	}

	if filter.Severity != "" && !domain.Severity(filter.Severity).Valid() {
		writeError(w, http.StatusBadRequest, "severity must be one of: Low, Medium, High, Critical")
		return
	}

	switch q.Get("resolved") {
	case "true":
		v := true
		filter.Resolved = &v
	case "false":
		v := false
		filter.Resolved = &v
	case "":
	default:
		writeError(w, http.StatusBadRequest, "resolved must be a boolean value")
		return
	}

	if v := q.Get("startTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startTime must be a valid ISO-8601 timestamp")
			return
		}
		filter.StartTime = &t
	}
	if v := q.Get("endTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endTime must be a valid ISO-8601 timestamp")
			return
		}
		filter.EndTime = &t
	}

	count, err := s.store.CountAlerts(r.Context(), filter)
	if err != nil {
		log.Printf("count alerts: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to count alerts")
		return
	}
	writeEntity(w, http.StatusOK, map[string]int{"total": count})
}
