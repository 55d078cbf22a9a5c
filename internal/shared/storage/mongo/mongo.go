package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Connect dials MongoDB, verifies the primary is reachable and returns the named database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New("MONGO_URI is empty")
	}
	if strings.TrimSpace(dbName) == "" {
		return nil, errors.New("MONGO_DB is empty")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(defaultConnectTimeout).
		SetServerSelectionTimeout(defaultConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	telemetry.Info("mongo.init", map[string]any{"database": dbName})
	return client.Database(dbName), nil
}

// Disconnect closes the client behind db.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}
