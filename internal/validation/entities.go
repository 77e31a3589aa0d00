package validation

import (
	"strings"

	"fleet-telemetry/backend/internal/domain"
)

// ValidateVehicle checks the fields required to register a vehicle.
func ValidateVehicle(v *domain.Vehicle) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if strings.TrimSpace(v.VIN) == "" {
		errs = append(errs, domain.FieldError{Field: "vin", Message: "VIN is required"})
	}
	if strings.TrimSpace(v.Manufacturer) == "" {
		errs = append(errs, domain.FieldError{Field: "manufacturer", Message: "manufacturer is required"})
	}
	if strings.TrimSpace(v.Model) == "" {
		errs = append(errs, domain.FieldError{Field: "model", Message: "model is required"})
	}
	if strings.TrimSpace(v.FleetID) == "" {
		errs = append(errs, domain.FieldError{Field: "fleetId", Message: "fleet ID is required"})
	}
	if !v.RegistrationStatus.Valid() {
		errs = append(errs, domain.FieldError{
			Field:   "registrationStatus",
			Message: "registration status must be one of: Active, Maintenance, Decommissioned",
			Value:   v.RegistrationStatus,
		})
	}

	return errs
}

// ValidateVehicleUpdate checks only the fields present in a partial
// update.
func ValidateVehicleUpdate(u *domain.VehicleUpdate) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if u.RegistrationStatus != nil && !u.RegistrationStatus.Valid() {
		errs = append(errs, domain.FieldError{
			Field:   "registrationStatus",
			Message: "registration status must be one of: Active, Maintenance, Decommissioned",
			Value:   *u.RegistrationStatus,
		})
	}
	if u.FleetID != nil && strings.TrimSpace(*u.FleetID) == "" {
		errs = append(errs, domain.FieldError{Field: "fleetId", Message: "fleet ID must be a non-empty string"})
	}

	return errs
}

// ValidateTelemetry checks GPS coordinates, sensor ranges, engine
// status and the timestamp of an ingested record.
func ValidateTelemetry(t *domain.TelemetryRecord) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if strings.TrimSpace(t.VehicleVIN) == "" {
		errs = append(errs, domain.FieldError{Field: "vehicleVin", Message: "vehicle VIN is required"})
	}
	if t.Latitude < -90 || t.Latitude > 90 {
		errs = append(errs, domain.FieldError{
			Field: "latitude", Message: "latitude must be between -90 and 90 degrees", Value: t.Latitude,
		})
	}
	if t.Longitude < -180 || t.Longitude > 180 {
		errs = append(errs, domain.FieldError{
			Field: "longitude", Message: "longitude must be between -180 and 180 degrees", Value: t.Longitude,
		})
	}
	if t.Speed < 0 {
		errs = append(errs, domain.FieldError{
			Field: "speed", Message: "speed must be a non-negative number", Value: t.Speed,
		})
	} else if t.Speed > 300 {
		errs = append(errs, domain.FieldError{
			Field: "speed", Message: "speed value seems unrealistic", Value: t.Speed,
		})
	}
	if t.FuelBatteryLevel < 0 || t.FuelBatteryLevel > 100 {
		errs = append(errs, domain.FieldError{
			Field: "fuelBatteryLevel", Message: "fuel/battery level must be between 0 and 100", Value: t.FuelBatteryLevel,
		})
	}
	if t.OdometerReading < 0 {
		errs = append(errs, domain.FieldError{
			Field: "odometerReading", Message: "odometer reading must be a non-negative number", Value: t.OdometerReading,
		})
	}
	if !t.EngineStatus.Valid() {
		errs = append(errs, domain.FieldError{
			Field: "engineStatus", Message: "engine status must be one of: On, Off, Idle", Value: t.EngineStatus,
		})
	}
	if t.Timestamp.IsZero() {
		errs = append(errs, domain.FieldError{Field: "timestamp", Message: "timestamp must be a valid date"})
	}

	return errs
}

// ValidateAlert checks an alert submission. Vehicle existence is
// checked against the store by the handler, not here.
func ValidateAlert(a *domain.Alert) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if strings.TrimSpace(a.VehicleVIN) == "" {
		errs = append(errs, domain.FieldError{Field: "vehicleVin", Message: "vehicle VIN is required"})
	}
	if !a.Severity.Valid() {
		errs = append(errs, domain.FieldError{
			Field: "severity", Message: "severity must be one of: Low, Medium, High, Critical", Value: a.Severity,
		})
	}
	if strings.TrimSpace(a.AlertType) == "" || strings.TrimSpace(a.Message) == "" {
		errs = append(errs, domain.FieldError{
			Field: "alertType", Message: "alert type and message are required",
		})
	}

	return errs
}
