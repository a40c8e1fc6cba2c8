package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/otp-file-gateway/internal/domain"
)

// TokenRepo is the append-only access token ledger. PK: token.
type TokenRepo struct {
	client    api
	tableName string
}

func NewTokenRepo(client api, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.AccessToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if err != nil {
		return storeErr("put access token", err)
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.AccessToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("token", token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("get access token", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	var t domain.AccessToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal access token: %w", err)
	}
	return &t, nil
}
