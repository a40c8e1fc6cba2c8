package mongoinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/otp-file-gateway/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OTPRepo stores OTP records with the ULID as _id, so sorting on _id
// descending yields the newest record first.
type OTPRepo struct {
	coll *mongo.Collection
}

func NewOTPRepo(coll *mongo.Collection) *OTPRepo {
	return &OTPRepo{coll: coll}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert otp record: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *OTPRepo) FindLatest(ctx context.Context, email, otp string) (*domain.OTPRecord, error) {
	var rec domain.OTPRecord
	err := r.coll.FindOne(ctx,
		bson.M{"email": email, "otp": otp},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find otp record: %w: %w", domain.ErrPersistence, err)
	}
	return &rec, nil
}

func (r *OTPRepo) MarkConsumed(ctx context.Context, email, otpID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": otpID, "email": email, "status": domain.OTPPending},
		bson.M{"$set": bson.M{"status": domain.OTPConsumed, "consumed_at": at}},
	)
	if err != nil {
		return fmt.Errorf("consume otp record: %w: %w", domain.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("otp record not pending: %w", domain.ErrConflict)
	}
	return nil
}
