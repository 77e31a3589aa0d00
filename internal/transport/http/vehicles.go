package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/validation"
)

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v domain.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := validation.ValidateVehicle(&v); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	if err := s.store.CreateVehicle(r.Context(), &v); err != nil {
		if errors.Is(err, domain.ErrDuplicateVIN) {
			writeError(w, http.StatusBadRequest, "Vehicle with this VIN already exists")
			return
		}
		log.Printf("create vehicle: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create vehicle")
		return
	}
	writeEntity(w, http.StatusCreated, v)
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VehicleFilter{
		Manufacturer:       q.Get("manufacturer"),
		FleetID:            q.Get("fleetId"),
		RegistrationStatus: q.Get("registrationStatus"),
	}

	vehicles, err := s.store.ListVehicles(r.Context(), filter)
	if err != nil {
		log.Printf("list vehicles: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}
	writeEntity(w, http.StatusOK, vehicles)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]

	v, err := s.store.GetVehicleByVIN(r.Context(), vin)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("get vehicle %s: %v", vin, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch vehicle")
		return
	}
	writeEntity(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]

	var u domain.VehicleUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := validation.ValidateVehicleUpdate(&u); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	v, err := s.store.UpdateVehicle(r.Context(), vin, &u)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("update vehicle %s: %v", vin, err)
		writeError(w, http.StatusInternalServerError, "Failed to update vehicle")
		return
	}
	writeEntity(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	vin := mux.Vars(r)["vin"]

	if err := s.store.DeleteVehicle(r.Context(), vin); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		log.Printf("delete vehicle %s: %v", vin, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete vehicle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
