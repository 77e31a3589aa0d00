package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/metrics"
	"fleet-telemetry/backend/internal/validation"
)

func (s *Server) handleIngestTelemetry(w http.ResponseWriter, r *http.Request) {
	var t domain.TelemetryRecord
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := validation.ValidateTelemetry(&t); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	vehicle, err := s.store.GetVehicleByVIN(r.Context(), t.VehicleVIN)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("ingest telemetry, vehicle lookup %s: %v", t.VehicleVIN, err)
		writeError(w, http.StatusInternalServerError, "Failed to record telemetry")
		return
	}

	if err := s.store.InsertTelemetry(r.Context(), &t); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("insert telemetry for %s: %v", t.VehicleVIN, err)
		writeError(w, http.StatusInternalServerError, "Failed to record telemetry")
		return
	}
	metrics.TelemetryIngested.Inc()

	// Best-effort live mirror; a redis outage never fails the ingest.
	if s.live != nil {
		go func(fleetID string, rec domain.TelemetryRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.live.UpdateVehicleState(ctx, fleetID, &rec); err != nil {
				log.Printf("mirror vehicle state %s: %v", rec.VehicleVIN, err)
			}
		}(vehicle.FleetID, t)
	}

	writeEntity(w, http.StatusCreated, t)
}

func (s *Server) handleTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]
	q := r.URL.Query()

	var start, end *time.Time
	if v := q.Get("startTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startTime must be a valid ISO-8601 timestamp")
			return
		}
		start = &t
	}
	if v := q.Get("endTime"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endTime must be a valid ISO-8601 timestamp")
			return
		}
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		writeError(w, http.StatusBadRequest, "startTime must be before endTime")
		return
	}

	records, err := s.store.TelemetryHistory(r.Context(), vin, start, end)
	if err != nil {
		log.Printf("telemetry history %s: %v", vin, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch telemetry history")
		return
	}
	writeEntity(w, http.StatusOK, records)
}

func (s *Server) handleLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]

	t, err := s.store.LatestTelemetry(r.Context(), vin)
	if err != nil {
		if errors.Is(err, domain.ErrNoTelemetry) {
			writeError(w, http.StatusNotFound, "No telemetry data found for vehicle")
			return
		}
		log.Printf("latest telemetry %s: %v", vin, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch latest telemetry")
		return
	}
	writeEntity(w, http.StatusOK, t)
}
