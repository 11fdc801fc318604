package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecoleta/ecoleta/internal/api"
	"github.com/ecoleta/ecoleta/internal/config"
	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/events"
	"github.com/ecoleta/ecoleta/internal/geo"
	"github.com/ecoleta/ecoleta/internal/geoindex"
	"github.com/ecoleta/ecoleta/internal/metrics"
	"github.com/ecoleta/ecoleta/internal/storage"
	"github.com/ecoleta/ecoleta/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	flagAddr     string
	flagDBDriver string
	flagDBDSN    string
)

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "listen address (default: $ADDR or :3333)")
	cmd.Flags().StringVar(&flagDBDriver, "db-driver", "", "database driver, sqlite or postgres (default: $DB_DRIVER)")
	cmd.Flags().StringVarP(&flagDBDSN, "db", "d", "", "database path or DSN (default: $DB_DSN)")
}

// applyServeFlags copies explicitly set flags over the environment settings.
func applyServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = flagAddr
	}
	if f := flags.Lookup("db-driver"); f != nil && f.Changed {
		cfg.DBDriver = flagDBDriver
	}
	if f := flags.Lookup("db"); f != nil && f.Changed {
		cfg.DBDSN = flagDBDSN
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	uploads, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	publisher := events.NewPublisher(sink)
	defer publisher.Close()

	points, err := store.ListAllPoints(ctx, database)
	if err != nil {
		return fmt.Errorf("loading points: %w", err)
	}
	index := geoindex.New()
	index.Load(points)
	slog.Info("nearby index ready", "points", index.Len())

	m := metrics.New()
	router := api.NewRouter(api.Deps{
		DB:             database,
		Storage:        uploads,
		Geo:            geo.NewClient(cfg.GeoBaseURL),
		Index:          index,
		Events:         publisher,
		Metrics:        m,
		PublicURL:      cfg.PublicURL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Wrap(router, m, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "public_url", cfg.PublicURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// openDatabase opens the configured database, brings the schema up to date and
// seeds the item catalog on first run.
func openDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	seeded, err := db.SeedItems(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if seeded > 0 {
		slog.Info("seeded item catalog", "items", seeded)
	}

	slog.Info("database ready", "driver", cfg.DBDriver)
	return database, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage {
	case config.StorageS3:
		s, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up S3 storage: %w", err)
		}
		slog.Info("storing uploads in S3", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s, nil
	default:
		d, err := storage.NewDisk(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("setting up upload directory: %w", err)
		}
		slog.Info("storing uploads on disk", "dir", cfg.UploadDir)
		return d, nil
	}
}

func newSink(cfg *config.Config) (events.Sink, error) {
	switch cfg.Events {
	case config.EventsKafka:
		sink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("setting up kafka events: %w", err)
		}
		slog.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
		return sink, nil
	case config.EventsAMQP:
		sink, err := events.NewAMQPSink(cfg.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("setting up amqp events: %w", err)
		}
		return sink, nil
	default:
		return events.Nop{}, nil
	}
}
