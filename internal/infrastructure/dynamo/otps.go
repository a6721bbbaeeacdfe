package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studyhub-api/internal/domain"
)

// OTPRepo manages one-time passcodes.
// PK: account_id, SK: code — resending never invalidates earlier codes,
// verification matches the exact (account_id, code) pair.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetValid returns the matching code only while it is unexpired. DynamoDB TTL
// purge is lazy, so expired-but-present records are rejected here too.
func (r *OTPRepo) GetValid(ctx context.Context, accountID, code string) (*domain.OTP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("account_id", accountID, "code", code),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var o domain.OTP
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	if o.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("otp expired: %w", domain.ErrNotFound)
	}
	return &o, nil
}

// Delete removes one code. Deleting an absent code is not an error.
func (r *OTPRepo) Delete(ctx context.Context, accountID, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("account_id", accountID, "code", code),
	})
	return err
}

// DeleteByAccount removes every outstanding code for the account (cascade on
// account deletion).
func (r *OTPRepo) DeleteByAccount(ctx context.Context, accountID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("account_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": &types.AttributeValueMemberS{Value: accountID}},
	})
	if err != nil {
		return err
	}
	var otps []domain.OTP
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &otps); err != nil {
		return err
	}
	for i := range otps {
		if err := r.Delete(ctx, otps[i].AccountID, otps[i].Code); err != nil {
			return err
		}
	}
	return nil
}
