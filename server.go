package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wellness/internal/app"
	"wellness/internal/config"
	"wellness/internal/database"
	"wellness/internal/repositories"
	"wellness/internal/services"
	"wellness/pkg/blobstore"
	"wellness/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

func runMigrate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBDriver == config.DriverMemory {
		return errors.New("nothing to migrate for the memory driver")
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	slog.Info("database migrated", "driver", cfg.DBDriver)
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deps, cleanup, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server, _, err := app.New(cfg, deps)
	if err != nil {
		return err
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.AppPort)
		listenErr <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	if err := server.Shutdown(); err != nil {
		slog.Error("error during fiber shutdown", "error", err)
	}
	slog.Info("server gracefully stopped")
	return nil
}

// buildDependencies opens the record store, photo store and event channel
// selected by cfg. cleanup releases whatever was opened.
func buildDependencies(ctx context.Context, cfg *config.Config) (app.Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var deps app.Dependencies
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn("using in-memory storage; data is lost on restart")
		deps.Users = repositories.NewMemoryUserRepository()
		deps.Records = repositories.NewMemoryDailyRecordRepository()
		deps.Goals = repositories.NewMemoryGoalsRepository()
	} else {
		db, err := openDatabase(cfg)
		if err != nil {
			return deps, cleanup, err
		}
		closers = append(closers, func() {
			if err := database.Close(db); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		})
		deps.Users = repositories.NewGORMUserRepository(db)
		deps.Records = repositories.NewGORMDailyRecordRepository(db)
		deps.Goals = repositories.NewGORMGoalsRepository(db)
	}

	photos, err := openBlobStore(ctx, cfg)
	if err != nil {
		cleanup()
		return deps, func() {}, err
	}
	deps.Photos = photos

	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			cleanup()
			return deps, func() {}, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		closers = append(closers, func() {
			if err := mqClient.Close(); err != nil {
				slog.Error("failed to close RabbitMQ client", "error", err)
			}
		})
		if err := mqClient.ConsumeRecordEvents(logRecordEvent); err != nil {
			slog.Error("failed to start RabbitMQ consumer", "error", err)
		}
		deps.Events = mqClient
	}
	return deps, cleanup, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return blobstore.NewDiskStore(cfg.UploadDir)
	}
}

// logRecordEvent is the consumer for record events.
func logRecordEvent(msg amqp.Delivery) error {
	var event services.RecordEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed record event: %w", err)
	}
	slog.Info("record event received",
		"routing_key", msg.RoutingKey,
		"user_id", event.UserID,
		"kind", event.Kind,
		"entry_date", event.EntryDate,
		"outcome", event.Outcome,
	)
	return nil
}
