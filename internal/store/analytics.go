package store

import (
	"context"
	"fmt"
	"time"

	"fleet-telemetry/backend/internal/domain"
)

// Analytics aggregate queries. Grouping, min/max and distinct counting
// happen in SQL; flooring, rounding and final shaping happen in the
// analytics service.

func (s *Postgres) TotalVehicleCount(ctx context.Context, fleetID string) (int, error) {
	query := "SELECT COUNT(*) FROM vehicles"
	var args []any
	if fleetID != "" {
		query += " WHERE fleet_id = $1"
		args = append(args, fleetID)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("total vehicle count: %w", err)
	}
	return count, nil
}

// ActiveVehicleCount counts distinct vehicles with at least one
// telemetry record at or after the cutoff.
func (s *Postgres) ActiveVehicleCount(ctx context.Context, fleetID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT t.vehicle_vin)
		FROM telemetry t
		JOIN vehicles v ON t.vehicle_vin = v.vin
		WHERE t.timestamp >= $1`
	args := []any{since}
	if fleetID != "" {
		query += " AND v.fleet_id = $2"
		args = append(args, fleetID)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("active vehicle count: %w", err)
	}
	return count, nil
}

// AverageFuelLevel averages each vehicle's latest fuel/battery reading.
// Latest-per-vehicle is selected by ranking on timestamp with id as the
// tie-break (highest id wins on equal timestamps).
func (s *Postgres) AverageFuelLevel(ctx context.Context, fleetID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(fuel_battery_level), 0)
		FROM (
			SELECT t.fuel_battery_level,
			       ROW_NUMBER() OVER (PARTITION BY t.vehicle_vin ORDER BY t.timestamp DESC, t.id DESC) AS rn
			FROM telemetry t
			JOIN vehicles v ON t.vehicle_vin = v.vin`
	var args []any
	if fleetID != "" {
		query += " WHERE v.fleet_id = $1"
		args = append(args, fleetID)
	}
	query += `
		) latest
		WHERE rn = 1`

	var avg float64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average fuel level: %w", err)
	}
	return avg, nil
}

// OdometerSpans returns each vehicle's min and max odometer among
// records at or after the cutoff. Vehicles without records in the
// window are absent.
func (s *Postgres) OdometerSpans(ctx context.Context, since time.Time) ([]domain.OdometerSpan, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT vehicle_vin, MIN(odometer_reading), MAX(odometer_reading)
		FROM telemetry
		WHERE timestamp >= $1
		GROUP BY vehicle_vin
		ORDER BY vehicle_vin
	`, since)
	if err != nil {
		return nil, fmt.Errorf("odometer spans: %w", err)
	}
	defer rows.Close()

	spans := make([]domain.OdometerSpan, 0)
	for rows.Next() {
		var sp domain.OdometerSpan
		if err := rows.Scan(&sp.VehicleVIN, &sp.MinOdometer, &sp.MaxOdometer); err != nil {
			return nil, fmt.Errorf("scan odometer span: %w", err)
		}
		spans = append(spans, sp)
	}
	return spans, rows.Err()
}

// VehicleLastSeen covers every known vehicle, pairing it with its most
// recent telemetry timestamp; the timestamp is nil for vehicles that
// have never reported.
func (s *Postgres) VehicleLastSeen(ctx context.Context) ([]domain.VehicleLastSeen, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.vin, MAX(t.timestamp)
		FROM vehicles v
		LEFT JOIN telemetry t ON t.vehicle_vin = v.vin
		GROUP BY v.vin
		ORDER BY v.vin
	`)
	if err != nil {
		return nil, fmt.Errorf("vehicle last seen: %w", err)
	}
	defer rows.Close()

	results := make([]domain.VehicleLastSeen, 0)
	for rows.Next() {
		var ls domain.VehicleLastSeen
		if err := rows.Scan(&ls.VehicleVIN, &ls.LastTelemetryTime); err != nil {
			return nil, fmt.Errorf("scan last seen: %w", err)
		}
		results = append(results, ls)
	}
	return results, rows.Err()
}

// LatestFuelReadings returns each vehicle's most recent fuel/battery
// reading, ranked like AverageFuelLevel.
func (s *Postgres) LatestFuelReadings(ctx context.Context) ([]domain.FuelReading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT vehicle_vin, fuel_battery_level, timestamp
		FROM (
			SELECT vehicle_vin, fuel_battery_level, timestamp,
			       ROW_NUMBER() OVER (PARTITION BY vehicle_vin ORDER BY timestamp DESC, id DESC) AS rn
			FROM telemetry
		) latest
		WHERE rn = 1
		ORDER BY vehicle_vin
	`)
	if err != nil {
		return nil, fmt.Errorf("latest fuel readings: %w", err)
	}
	defer rows.Close()

	readings := make([]domain.FuelReading, 0)
	for rows.Next() {
		var r domain.FuelReading
		if err := rows.Scan(&r.VehicleVIN, &r.FuelBatteryLevel, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan fuel reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// AlertCounts groups alerts created at or after the cutoff by type and
// by severity independently, plus a total. An optional resolved filter
// narrows all three counts.
func (s *Postgres) AlertCounts(ctx context.Context, since time.Time, resolved *bool) (byType, bySeverity map[string]int, total int, err error) {
	byType = make(map[string]int)
	bySeverity = make(map[string]int)

	where := "WHERE created_at >= $1"
	args := []any{since}
	if resolved != nil {
		args = append(args, *resolved)
		where += " AND resolved = $2"
	}

	rows, err := s.pool.Query(ctx,
		"SELECT alert_type, COUNT(*) FROM alerts "+where+" GROUP BY alert_type", args...)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("alert counts by type: %w", err)
	}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return nil, nil, 0, fmt.Errorf("scan alert type count: %w", err)
		}
		byType[t] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, 0, err
	}

	rows, err = s.pool.Query(ctx,
		"SELECT severity, COUNT(*) FROM alerts "+where+" GROUP BY severity", args...)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("alert counts by severity: %w", err)
	}
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			rows.Close()
			return nil, nil, 0, fmt.Errorf("scan alert severity count: %w", err)
		}
		bySeverity[sev] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, 0, err
	}

	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM alerts "+where, args...,
	).Scan(&total); err != nil {
		return nil, nil, 0, fmt.Errorf("alert total count: %w", err)
	}

	return byType, bySeverity, total, nil
}
