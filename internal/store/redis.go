package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-telemetry/backend/internal/config"
	"fleet-telemetry/backend/internal/domain"
)

// Redis mirrors each vehicle's latest state for the dashboard and fans
// alert events out over pub/sub. It is a live view only; Postgres stays
// the source of truth.
type Redis struct {
	client *redis.Client
}

const stateTTL = 5 * time.Minute

func NewRedis(ctx context.Context, cfg *config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// UpdateVehicleState writes the vehicle's latest reading to its state
// hash, refreshes the fleet geo set and publishes the reading on the
// fleet telemetry channel, all in one pipeline.
func (r *Redis) UpdateVehicleState(ctx context.Context, fleetID string, rec *domain.TelemetryRecord) error {
	stateData := map[string]interface{}{
		"vehicle_vin":   rec.VehicleVIN,
		"fleet_id":      fleetID,
		"lat":           rec.Latitude,
		"lng":           rec.Longitude,
		"speed":         rec.Speed,
		"fuel_battery":  rec.FuelBatteryLevel,
		"odometer":      rec.OdometerReading,
		"engine_status": string(rec.EngineStatus),
		"timestamp":     rec.Timestamp.Unix(),
	}

	pubPayload, err := json.Marshal(stateData)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	stateKey := fmt.Sprintf("vehicle:%s:state", rec.VehicleVIN)
	geoKey := fmt.Sprintf("fleet:%s:geo", fleetID)
	pubChannel := fmt.Sprintf("fleet:%s:telemetry", fleetID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      rec.VehicleVIN,
		Longitude: rec.Longitude,
		Latitude:  rec.Latitude,
	})
	pipe.Publish(ctx, pubChannel, pubPayload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (r *Redis) PublishAlert(ctx context.Context, fleetID string, payload []byte) error {
	channel := fmt.Sprintf("fleet:%s:alerts", fleetID)
	return r.client.Publish(ctx, channel, payload).Err()
}

// SubscribeAlerts subscribes to one fleet's alert channel, or to every
// fleet when fleetID is empty.
func (r *Redis) SubscribeAlerts(ctx context.Context, fleetID string) *redis.PubSub {
	if fleetID == "" {
		return r.client.PSubscribe(ctx, "fleet:*:alerts")
	}
	return r.client.Subscribe(ctx, fmt.Sprintf("fleet:%s:alerts", fleetID))
}
