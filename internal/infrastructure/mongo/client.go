// Package mongoinfra implements the OTP and access token ledgers on MongoDB.
// It is selected with LEDGER_BACKEND=mongo.
package mongoinfra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	OTPCollection   = "otp_verifications"
	TokenCollection = "access_tokens"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes for both ledgers. Like the DynamoDB
// bootstrap it only logs failures. No TTL index is created on expires_at.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	_, err := db.Collection(OTPCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "otp", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		slog.Warn("could not create index", "collection", OTPCollection, "err", err)
	}
	_, err = db.Collection(TokenCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		slog.Warn("could not create index", "collection", TokenCollection, "err", err)
	}
}
