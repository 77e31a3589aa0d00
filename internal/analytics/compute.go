package analytics

import (
	"math"
	"time"

	"fleet-telemetry/backend/internal/domain"
)

// round2 rounds half away from zero to 2 decimal places. It is applied
// at the final step only; accumulation keeps full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// totalDistance sums each vehicle's odometer span, flooring every span
// at 0 to guard against odometer rollback or noise.
func totalDistance(spans []domain.OdometerSpan) float64 {
	var total float64
	for _, sp := range spans {
		total += max(0, sp.MaxOdometer-sp.MinOdometer)
	}
	return round2(total)
}

func distanceDetails(spans []domain.OdometerSpan, timeWindow float64) []domain.VehicleDistance {
	details := make([]domain.VehicleDistance, len(spans))
	for i, sp := range spans {
		details[i] = domain.VehicleDistance{
			VehicleVIN:       sp.VehicleVIN,
			StartOdometer:    sp.MinOdometer,
			EndOdometer:      sp.MaxOdometer,
			DistanceTraveled: max(0, sp.MaxOdometer-sp.MinOdometer),
			TimeWindow:       timeWindow,
		}
	}
	return details
}

// activityDetails maps every known vehicle to its activity state. A
// vehicle with no telemetry at all reports nil hours inactive and is
// never active.
func activityDetails(rows []domain.VehicleLastSeen, now time.Time, timeWindow float64) []domain.VehicleActivity {
	details := make([]domain.VehicleActivity, len(rows))
	for i, row := range rows {
		va := domain.VehicleActivity{VehicleVIN: row.VehicleVIN}
		if row.LastTelemetryTime != nil {
			hours := now.Sub(*row.LastTelemetryTime).Hours()
			rounded := round2(hours)
			va.LastTelemetryTime = row.LastTelemetryTime
			va.HoursInactive = &rounded
			va.IsActive = hours < timeWindow
		}
		details[i] = va
	}
	return details
}

// fuelStatuses compares each vehicle's latest reading against the low
// and critical thresholds. Both comparisons are inclusive, so with the
// default 15/5 configuration critical always implies low.
func fuelStatuses(readings []domain.FuelReading, lowThreshold, criticalThreshold float64) []domain.VehicleFuelStatus {
	statuses := make([]domain.VehicleFuelStatus, len(readings))
	for i, r := range readings {
		statuses[i] = domain.VehicleFuelStatus{
			VehicleVIN:       r.VehicleVIN,
			CurrentFuelLevel: r.FuelBatteryLevel,
			LastUpdated:      r.Timestamp,
			IsLowFuel:        r.FuelBatteryLevel <= lowThreshold,
			IsCriticalFuel:   r.FuelBatteryLevel <= criticalThreshold,
		}
	}
	return statuses
}
