package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/otp-file-gateway/internal/domain"
)

// OTPRepo is the append-only OTP ledger.
// PK: email, SK: otp_id (ULID). Records are never deleted; consumption only
// flips status.
type OTPRepo struct {
	client    api
	tableName string
}

func NewOTPRepo(client api, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(otp_id)"),
	})
	if err != nil {
		return storeErr("put otp record", err)
	}
	return nil
}

// FindLatest returns the most recently issued record for email whose code is
// exactly otp. Pages are read newest first and the scan stops at the first hit.
func (r *OTPRepo) FindLatest(ctx context.Context, email, otp string) (*domain.OTPRecord, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("otp = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":o": &types.AttributeValueMemberS{Value: otp},
		},
		ScanIndexForward: aws.Bool(false),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, storeErr("query otp records", err)
		}
		if len(out.Items) == 0 {
			continue
		}
		var rec domain.OTPRecord
		if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
			return nil, fmt.Errorf("unmarshal otp record: %w", err)
		}
		return &rec, nil
	}
	return nil, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
}

// MarkConsumed moves a pending record to consumed. It returns ErrConflict when
// the record is no longer pending, so only one caller can win.
func (r *OTPRepo) MarkConsumed(ctx context.Context, email, otpID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:     domain.OTPConsumed,
		fieldConsumedAt: at,
	})
	if err != nil {
		return err
	}
	ue.Names["#st"] = fieldStatus
	ue.Values[":pending"] = &types.AttributeValueMemberS{Value: domain.OTPPending}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("email", email, "otp_id", otpID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(otp_id) AND #st = :pending"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp record not pending: %w", domain.ErrConflict)
	}
	if err != nil {
		return storeErr("consume otp record", err)
	}
	return nil
}
