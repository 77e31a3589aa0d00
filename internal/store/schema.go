package store

import (
	"context"
	"fmt"
	"log"
)

// InitSchema creates the vehicles, telemetry and alerts tables plus the
// indexes the analytics queries lean on. Every statement is idempotent.
func (s *Postgres) InitSchema(ctx context.Context) error {
	steps := []struct {
		label string
		sql   string
	}{
		{"vehicles table", `
			CREATE TABLE IF NOT EXISTS vehicles (
				id                   BIGSERIAL        PRIMARY KEY,
				vin                  VARCHAR(20)      NOT NULL UNIQUE,
				manufacturer         VARCHAR(50)      NOT NULL,
				model                VARCHAR(50)      NOT NULL,
				fleet_id             VARCHAR(50)      NOT NULL,
				owner_operator       JSONB            NOT NULL,
				registration_status  VARCHAR(20)      NOT NULL,
				created_at           TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
				updated_at           TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

				CONSTRAINT chk_registration_status CHECK (
					registration_status IN ('Active', 'Maintenance', 'Decommissioned')
				)
			);
		`},
		{"telemetry table", `
			CREATE TABLE IF NOT EXISTS telemetry (
				id                   BIGSERIAL        PRIMARY KEY,
				vehicle_vin          VARCHAR(20)      NOT NULL REFERENCES vehicles (vin) ON DELETE CASCADE,
				latitude             DOUBLE PRECISION NOT NULL,
				longitude            DOUBLE PRECISION NOT NULL,
				speed                DOUBLE PRECISION NOT NULL,
				engine_status        VARCHAR(10)      NOT NULL,
				fuel_battery_level   DOUBLE PRECISION NOT NULL,
				odometer_reading     DOUBLE PRECISION NOT NULL,
				diagnostic_codes     JSONB,
				timestamp            TIMESTAMPTZ      NOT NULL,
				created_at           TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

				CONSTRAINT chk_engine_status CHECK (
					engine_status IN ('On', 'Off', 'Idle')
				)
			);
		`},
		{"alerts table", `
			CREATE TABLE IF NOT EXISTS alerts (
				id                   BIGSERIAL        PRIMARY KEY,
				vehicle_vin          VARCHAR(20)      NOT NULL REFERENCES vehicles (vin) ON DELETE CASCADE,
				telemetry_id         BIGINT           REFERENCES telemetry (id),
				alert_type           VARCHAR(50)      NOT NULL,
				severity             VARCHAR(20)      NOT NULL,
				message              TEXT             NOT NULL,
				resolved             BOOLEAN          NOT NULL DEFAULT FALSE,
				created_at           TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
				resolved_at          TIMESTAMPTZ,

				CONSTRAINT chk_severity CHECK (
					severity IN ('Low', 'Medium', 'High', 'Critical')
				)
			);
		`},
	}

	for _, step := range steps {
		if _, err := s.pool.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("create %s: %w", step.label, err)
		}
		log.Printf("schema: %s ready", step.label)
	}

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_vehicles_fleet_id",
			sql:  "CREATE INDEX IF NOT EXISTS idx_vehicles_fleet_id ON vehicles (fleet_id);",
			why:  "query: vehicles in a fleet",
		},
		{
			name: "idx_telemetry_vin_timestamp",
			sql: `CREATE INDEX IF NOT EXISTS idx_telemetry_vin_timestamp
				  ON telemetry (vehicle_vin, timestamp DESC);`,
			why: "query: latest-per-vehicle ranking and history",
		},
		{
			name: "idx_telemetry_timestamp",
			sql:  "CREATE INDEX IF NOT EXISTS idx_telemetry_timestamp ON telemetry (timestamp DESC);",
			why:  "query: time-window cutoffs",
		},
		{
			name: "idx_alerts_created_at",
			sql:  "CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);",
			why:  "query: alert summary windows",
		},
		{
			name: "idx_alerts_vin_type",
			sql:  "CREATE INDEX IF NOT EXISTS idx_alerts_vin_type ON alerts (vehicle_vin, alert_type);",
			why:  "query: alert counts by vehicle/type",
		},
		{
			name: "idx_alerts_unresolved",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_unresolved
				  ON alerts (created_at DESC)
				  WHERE resolved = FALSE;`,
			why: "query: open alerts only (partial index)",
		},
	}

	for _, idx := range indexes {
		if _, err := s.pool.Exec(ctx, idx.sql); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
		log.Printf("schema: %-32s ready (%s)", idx.name, idx.why)
	}

	return nil
}
