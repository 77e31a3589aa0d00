package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"fleet-telemetry/backend/internal/domain"
)

func (s *Postgres) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	owner, err := json.Marshal(v.OwnerOperator)
	if err != nil {
		return fmt.Errorf("marshal owner_operator: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (vin, manufacturer, model, fleet_id, owner_operator, registration_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, v.VIN, v.Manufacturer, v.Model, v.FleetID, owner, string(v.RegistrationStatus)).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateVIN
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *Postgres) GetVehicleByVIN(ctx context.Context, vin string) (*domain.Vehicle, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, vin, manufacturer, model, fleet_id, owner_operator, registration_status, created_at, updated_at
		FROM vehicles
		WHERE vin = $1
	`, vin)

	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("select vehicle %s: %w", vin, err)
	}
	return v, nil
}

func (s *Postgres) ListVehicles(ctx context.Context, filter domain.VehicleFilter) ([]domain.Vehicle, error) {
	query := `
		SELECT id, vin, manufacturer, model, fleet_id, owner_operator, registration_status, created_at, updated_at
		FROM vehicles`

	var conds []string
	var args []any
	if filter.Manufacturer != "" {
		args = append(args, filter.Manufacturer)
		conds = append(conds, fmt.Sprintf("manufacturer = $%d", len(args)))
	}
	if filter.FleetID != "" {
		args = append(args, filter.FleetID)
		conds = append(conds, fmt.Sprintf("fleet_id = $%d", len(args)))
	}
	if filter.RegistrationStatus != "" {
		args = append(args, filter.RegistrationStatus)
		conds = append(conds, fmt.Sprintf("registration_status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (s *Postgres) UpdateVehicle(ctx context.Context, vin string, u *domain.VehicleUpdate) (*domain.Vehicle, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any

	if u.Manufacturer != nil {
		args = append(args, *u.Manufacturer)
		sets = append(sets, fmt.Sprintf("manufacturer = $%d", len(args)))
	}
	if u.Model != nil {
		args = append(args, *u.Model)
		sets = append(sets, fmt.Sprintf("model = $%d", len(args)))
	}
	if u.FleetID != nil {
		args = append(args, *u.FleetID)
		sets = append(sets, fmt.Sprintf("fleet_id = $%d", len(args)))
	}
	if u.OwnerOperator != nil {
		owner, err := json.Marshal(u.OwnerOperator)
		if err != nil {
			return nil, fmt.Errorf("marshal owner_operator: %w", err)
		}
		args = append(args, owner)
		sets = append(sets, fmt.Sprintf("owner_operator = $%d", len(args)))
	}
	if u.RegistrationStatus != nil {
		args = append(args, string(*u.RegistrationStatus))
		sets = append(sets, fmt.Sprintf("registration_status = $%d", len(args)))
	}

	args = append(args, vin)
	query := fmt.Sprintf(`
		UPDATE vehicles SET %s
		WHERE vin = $%d
		RETURNING id, vin, manufacturer, model, fleet_id, owner_operator, registration_status, created_at, updated_at
	`, strings.Join(sets, ", "), len(args))

	v, err := scanVehicle(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("update vehicle %s: %w", vin, err)
	}
	return v, nil
}

func (s *Postgres) DeleteVehicle(ctx context.Context, vin string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM vehicles WHERE vin = $1", vin)
	if err != nil {
		return fmt.Errorf("delete vehicle %s: %w", vin, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var owner []byte
	var status string

	err := row.Scan(&v.ID, &v.VIN, &v.Manufacturer, &v.Model, &v.FleetID, &owner, &status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.RegistrationStatus = domain.RegistrationStatus(status)
	if len(owner) > 0 {
		if err := json.Unmarshal(owner, &v.OwnerOperator); err != nil {
			return nil, fmt.Errorf("unmarshal owner_operator: %w", err)
		}
	}
	return &v, nil
}
