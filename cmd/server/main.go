package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fleet-telemetry/backend/internal/analytics"
	"fleet-telemetry/backend/internal/cache"
	"fleet-telemetry/backend/internal/config"
	"fleet-telemetry/backend/internal/store"
	transporthttp "fleet-telemetry/backend/internal/transport/http"
	"fleet-telemetry/backend/internal/transport/ws"
)

func main() {
	root := &cobra.Command{
		Use:   "fleet-telemetry",
		Short: "Fleet telemetry management backend",
	}
	root.AddCommand(serveCmd(), initDBCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	return config.Load()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pg, err := store.NewPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			// Redis is optional: without it the server skips the live
			// mirror and the websocket stream.
			var live transporthttp.Live
			var wsAlerts http.Handler
			rd, err := store.NewRedis(ctx, cfg)
			if err != nil {
				log.Printf("redis unavailable, live features disabled: %v", err)
			} else {
				defer rd.Close()
				live = rd
				wsAlerts = ws.NewAlertStream(rd)
			}

			svc := analytics.NewService(
				pg,
				cache.New(),
				time.Duration(cfg.CacheTTLSeconds)*time.Second,
				time.Duration(cfg.QueryTimeoutMS)*time.Millisecond,
				log.Default(),
			)

			srv := &http.Server{
				Addr:              ":" + cfg.HTTPPort,
				Handler:           transporthttp.NewServer(pg, svc, live, wsAlerts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Printf("listening on :%s", cfg.HTTPPort)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			log.Println("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			pg, err := store.NewPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.InitSchema(ctx); err != nil {
				return err
			}
			log.Println("schema initialized")
			return nil
		},
	}
}
