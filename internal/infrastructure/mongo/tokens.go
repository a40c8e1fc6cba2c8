package mongoinfra

import (
	"context"
	"errors"
	"fmt"

	"github.com/otp-file-gateway/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TokenRepo struct {
	coll *mongo.Collection
}

func NewTokenRepo(coll *mongo.Collection) *TokenRepo {
	return &TokenRepo{coll: coll}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.AccessToken) error {
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert access token: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find access token: %w: %w", domain.ErrPersistence, err)
	}
	return &t, nil
}
