package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/farehop/farehop/internal/adapters/flights"
	"github.com/farehop/farehop/internal/adapters/httpapi"
	"github.com/farehop/farehop/internal/adapters/mail"
	"github.com/farehop/farehop/internal/adapters/payment"
	redisadapter "github.com/farehop/farehop/internal/adapters/redis"
	"github.com/farehop/farehop/internal/adapters/sqlite"
	"github.com/farehop/farehop/internal/config"
	"github.com/farehop/farehop/internal/logging"
	"github.com/farehop/farehop/internal/metrics"
	"github.com/farehop/farehop/pkg/relay"
	"github.com/farehop/farehop/pkg/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the booking HTTP server",
	Long:  `Starts the stateless booking API, relaying workflow state through the configured Redis store.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			// Fall back to pure-env configuration when no file exists.
			if errors.Is(err, os.ErrNotExist) {
				cfg, err = config.LoadFromEnv()
			}
			if err != nil {
				fmt.Printf("Error loading configuration: %v\n", err)
				os.Exit(1)
			}
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		kv := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer kv.Close()

		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			fmt.Printf("Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := sqlite.NewRepository(db)
		if err := repo.InitSchema(cmd.Context()); err != nil {
			fmt.Printf("Error initializing schema: %v\n", err)
			os.Exit(1)
		}

		codec, err := relay.NewCodec([]byte(cfg.RelaySecret))
		if err != nil {
			fmt.Printf("Error deriving relay keys: %v\n", err)
			os.Exit(1)
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())

		relayStore := relay.NewStore(kv, codec,
			relay.WithLogger(logger),
			relay.WithObserver(metrics.NewRelay(registry)),
		)

		flightProvider := flights.NewClient(cfg.Flights.BaseURL, cfg.Flights.APIKey, kv)
		placeProvider := flights.NewPlaceClient(cfg.Places.BaseURL, cfg.Places.APIKey)
		gateway := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey)
		mailer := mail.NewSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)

		flightSvc := workflow.NewFlightService(relayStore, flightProvider, gateway, repo, mailer,
			workflow.WithLogger(logger),
			workflow.WithMailFrom(cfg.Mail.From),
		)
		sightSvc := workflow.NewSightService(relayStore, placeProvider,
			workflow.WithSightLogger(logger),
		)

		handler := httpapi.NewHandler(flightSvc, sightSvc, repo,
			httpapi.WithLogger(logger),
			httpapi.WithHealthCheck("redis", kv),
			httpapi.WithHealthCheck("sqlite", repo),
			httpapi.WithMetricsRegistry(registry),
		)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting booking server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("failed to close server", "error", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
