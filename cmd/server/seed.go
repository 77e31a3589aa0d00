package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"fleet-telemetry/backend/internal/domain"
	"fleet-telemetry/backend/internal/store"
)

var seedModels = []struct {
	manufacturer string
	model        string
}{
	{"Volvo", "FH16"},
	{"Scania", "R450"},
	{"Mercedes-Benz", "Actros"},
	{"MAN", "TGX"},
	{"DAF", "XF"},
	{"Tesla", "Semi"},
}

var vinChars = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

func randomVIN(rng *rand.Rand) string {
	b := make([]byte, 17)
	for i := range b {
		b[i] = vinChars[rng.Intn(len(vinChars))]
	}
	return string(b)
}

func seedCmd() *cobra.Command {
	var (
		vehicles int
		records  int
		fleets   int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample vehicles and telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			pg, err := store.NewPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			rng := rand.New(rand.NewSource(seed))

			for i := 0; i < vehicles; i++ {
				mm := seedModels[rng.Intn(len(seedModels))]
				v := domain.Vehicle{
					VIN:          randomVIN(rng),
					Manufacturer: mm.manufacturer,
					Model:        mm.model,
					FleetID:      fmt.Sprintf("fleet-%03d", rng.Intn(fleets)+1),
					OwnerOperator: domain.OwnerOperator{
						Name:       fmt.Sprintf("Operator %d", i+1),
						Contact:    fmt.Sprintf("operator%d@example.com", i+1),
						Department: "Logistics",
					},
					RegistrationStatus: domain.StatusActive,
				}
				if err := pg.CreateVehicle(ctx, &v); err != nil {
					return fmt.Errorf("seed vehicle %s: %w", v.VIN, err)
				}

				if err := seedTelemetry(ctx, pg, rng, v.VIN, records); err != nil {
					return err
				}
				log.Printf("seeded %s (%s %s) with %d records", v.VIN, v.Manufacturer, v.Model, records)
			}

			log.Printf("seed complete: %d vehicles, %d telemetry records", vehicles, vehicles*records)
			return nil
		},
	}

	cmd.Flags().IntVar(&vehicles, "vehicles", 10, "number of vehicles to create")
	cmd.Flags().IntVar(&records, "records", 100, "telemetry records per vehicle")
	cmd.Flags().IntVar(&fleets, "fleets", 3, "number of fleet ids to spread vehicles over")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	return cmd
}

// seedTelemetry walks one vehicle backwards through time: odometer
// climbs, fuel drains and refills, position drifts around a depot.
func seedTelemetry(ctx context.Context, pg *store.Postgres, rng *rand.Rand, vin string, n int) error {
	lat := 52.0 + rng.Float64()*2
	lon := 5.0 + rng.Float64()*2
	odometer := 10000 + rng.Float64()*90000
	fuel := 60 + rng.Float64()*40

	start := time.Now().Add(-time.Duration(n) * 15 * time.Minute)

	for i := 0; i < n; i++ {
		lat += (rng.Float64() - 0.5) * 0.02
		lon += (rng.Float64() - 0.5) * 0.02
		odometer += rng.Float64() * 8
		fuel -= rng.Float64() * 1.5
		if fuel < 10 {
			fuel = 95 + rng.Float64()*5
		}

		status := domain.EngineOn
		speed := 40 + rng.Float64()*50
		if rng.Intn(10) == 0 {
			status = domain.EngineIdle
			speed = 0
		}

		t := domain.TelemetryRecord{
			VehicleVIN:       vin,
			Latitude:         lat,
			Longitude:        lon,
			Speed:            speed,
			EngineStatus:     status,
			FuelBatteryLevel: fuel,
			OdometerReading:  odometer,
			Timestamp:        start.Add(time.Duration(i) * 15 * time.Minute),
		}
		if err := pg.InsertTelemetry(ctx, &t); err != nil {
			return fmt.Errorf("seed telemetry for %s: %w", vin, err)
		}
	}
	return nil
}
