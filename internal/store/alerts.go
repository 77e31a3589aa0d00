package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"fleet-telemetry/backend/internal/domain"
)

func (s *Postgres) CreateAlert(ctx context.Context, a *domain.Alert) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO alerts (vehicle_vin, telemetry_id, alert_type, severity, message, resolved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, a.VehicleVIN, a.TelemetryID, a.AlertType, string(a.Severity), a.Message, a.Resolved).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return domain.ErrVehicleNotFound
		}
		return fmt.Errorf("insert alert for %s: %w", a.VehicleVIN, err)
	}
	return nil
}

func (s *Postgres) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, vehicle_vin, telemetry_id, alert_type, severity, message, resolved, created_at, resolved_at
		FROM alerts
		WHERE id = $1
	`, id)

	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("select alert %d: %w", id, err)
	}
	return a, nil
}

// ResolveAlert marks an alert resolved and stamps resolved_at. Resolving
// an already-resolved alert is a no-op that returns the current row.
func (s *Postgres) ResolveAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE alerts
		SET resolved = TRUE, resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $1
		RETURNING id, vehicle_vin, telemetry_id, alert_type, severity, message, resolved, created_at, resolved_at
	`, id)

	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("resolve alert %d: %w", id, err)
	}
	return a, nil
}

func (s *Postgres) CountAlerts(ctx context.Context, filter domain.AlertFilter) (int, error) {
	query := "SELECT COUNT(*) FROM alerts"

	var conds []string
	var args []any
	if filter.VehicleVIN != "" {
		args = append(args, filter.VehicleVIN)
		conds = append(conds, fmt.Sprintf("vehicle_vin = $%d", len(args)))
	}
	if filter.AlertType != "" {
		args = append(args, filter.AlertType)
		conds = append(conds, fmt.Sprintf("alert_type = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		conds = append(conds, fmt.Sprintf("resolved = $%d", len(args)))
	}
	if filter.StartTime != nil {
		args = append(args, *filter.StartTime)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.EndTime != nil {
		args = append(args, *filter.EndTime)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return count, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var severity string

	err := row.Scan(&a.ID, &a.VehicleVIN, &a.TelemetryID, &a.AlertType, &severity,
		&a.Message, &a.Resolved, &a.CreatedAt, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	a.Severity = domain.Severity(severity)
	return &a, nil
}
