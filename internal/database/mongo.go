package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"exercisetracker/internal/config"
	"exercisetracker/internal/middleware"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo opens a Mongo client for cfg.MongoURI and returns the configured database.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("exercisetracker")
	if cfg.DBMaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.DBMaxOpenConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	middleware.Logger.Info("MongoDB connected successfully", slog.String("database", cfg.MongoDatabase))
	return client, client.Database(cfg.MongoDatabase), nil
}
