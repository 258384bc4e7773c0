package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck"
	"github.com/fluentdeck/fluentdeck/fluentdeck/database"
	"github.com/fluentdeck/fluentdeck/fluentdeck/logger"
	"github.com/fluentdeck/fluentdeck/fluentdeck/migration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("migrate")))

	configPath := flag.String("config", "config.toml", "path to config")
	dataDir := flag.String("data", "./data", "directory with BSON dump files")
	mongoURI := flag.String("mongo-uri", "", "migrate directly from a live MongoDB instance")
	mongoDB := flag.String("mongo-db", "fluentdeck", "MongoDB database name")
	batchSize := flag.Int("batch-size", 1000, "insert batch size")
	useCopy := flag.Bool("copy", false, "use COPY for progress rows (empty table only)")
	flag.Parse()

	cfg, err := fluentdeck.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := migration.NewMigrator(db.BunDB(), *dataDir)
	migrator.SetBatchSize(*batchSize)
	if *useCopy {
		migrator.UsePool(db.GetPool())
	}

	if *mongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
		if err != nil {
			slog.Error("Failed to connect to MongoDB", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		migrator.UseMongo(client, *mongoDB)
		if err := migrator.MigrateAllFromMongo(ctx); err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		if err := migrator.MigrateAll(ctx); err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	slog.Info("Migration completed successfully")
}
