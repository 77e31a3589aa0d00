package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fleet-telemetry/backend/internal/domain"
)

func (s *Postgres) InsertTelemetry(ctx context.Context, t *domain.TelemetryRecord) error {
	var codes any
	if len(t.DiagnosticCodes) > 0 {
		b, err := json.Marshal(t.DiagnosticCodes)
		if err != nil {
			return fmt.Errorf("marshal diagnostic_codes: %w", err)
		}
		codes = b
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO telemetry
			(vehicle_vin, latitude, longitude, speed, engine_status, fuel_battery_level, odometer_reading, diagnostic_codes, timestamp)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.VehicleVIN, t.Latitude, t.Longitude, t.Speed, string(t.EngineStatus),
		t.FuelBatteryLevel, t.OdometerReading, codes, t.Timestamp).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return domain.ErrVehicleNotFound
		}
		return fmt.Errorf("insert telemetry for %s: %w", t.VehicleVIN, err)
	}
	return nil
}

// TelemetryHistory returns a vehicle's records newest first, optionally
// bounded by an inclusive time range.
func (s *Postgres) TelemetryHistory(ctx context.Context, vin string, start, end *time.Time) ([]domain.TelemetryRecord, error) {
	query := `
		SELECT id, vehicle_vin, latitude, longitude, speed, engine_status, fuel_battery_level, odometer_reading, diagnostic_codes, timestamp, created_at
		FROM telemetry
		WHERE vehicle_vin = $1`
	args := []any{vin}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("telemetry history for %s: %w", vin, err)
	}
	defer rows.Close()

	records := make([]domain.TelemetryRecord, 0)
	for rows.Next() {
		t, err := scanTelemetry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		records = append(records, *t)
	}
	return records, rows.Err()
}

// LatestTelemetry returns the most recent record for a vehicle. Equal
// timestamps are broken by highest id (insertion order).
func (s *Postgres) LatestTelemetry(ctx context.Context, vin string) (*domain.TelemetryRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, vehicle_vin, latitude, longitude, speed, engine_status, fuel_battery_level, odometer_reading, diagnostic_codes, timestamp, created_at
		FROM telemetry
		WHERE vehicle_vin = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, vin)

	t, err := scanTelemetry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoTelemetry
		}
		return nil, fmt.Errorf("latest telemetry for %s: %w", vin, err)
	}
	return t, nil
}

func scanTelemetry(row pgx.Row) (*domain.TelemetryRecord, error) {
	var t domain.TelemetryRecord
	var status string
	var codes []byte

	err := row.Scan(&t.ID, &t.VehicleVIN, &t.Latitude, &t.Longitude, &t.Speed, &status,
		&t.FuelBatteryLevel, &t.OdometerReading, &codes, &t.Timestamp, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.EngineStatus = domain.EngineStatus(status)
	if len(codes) > 0 {
		if err := json.Unmarshal(codes, &t.DiagnosticCodes); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostic_codes: %w", err)
		}
	}
	return &t, nil
}
