package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/studyhub-api/internal/domain"
)

// uploadedAtLayout pins the fractional seconds to nine digits. The value is
// the owner-index range key and must sort lexicographically; RFC3339Nano
// drops trailing zeros, so two timestamps differing only in sub-second
// precision would misorder.
const uploadedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// materialRecord is the stored shape of a material. It exists so the range
// key gets the fixed-width timestamp encoding instead of the marshaler's
// default RFC3339Nano.
type materialRecord struct {
	MaterialID       string `dynamodbav:"material_id"`
	Title            string `dynamodbav:"title"`
	Subject          string `dynamodbav:"subject"`
	Description      string `dynamodbav:"description"`
	CourseCode       string `dynamodbav:"course_code"`
	Tags             string `dynamodbav:"tags"`
	OwnerIdentifier  string `dynamodbav:"owner_identifier"`
	ObjectKey        string `dynamodbav:"object_key"`
	OriginalFilename string `dynamodbav:"original_filename"`
	UploadedAt       string `dynamodbav:"uploaded_at"`
}

func toRecord(m *domain.Material) materialRecord {
	return materialRecord{
		MaterialID:       m.MaterialID,
		Title:            m.Title,
		Subject:          m.Subject,
		Description:      m.Description,
		CourseCode:       m.CourseCode,
		Tags:             m.Tags,
		OwnerIdentifier:  m.OwnerIdentifier,
		ObjectKey:        m.ObjectKey,
		OriginalFilename: m.OriginalFilename,
		UploadedAt:       m.UploadedAt.UTC().Format(uploadedAtLayout),
	}
}

func (rec materialRecord) toDomain() (domain.Material, error) {
	uploadedAt, err := time.Parse(time.RFC3339Nano, rec.UploadedAt)
	if err != nil {
		return domain.Material{}, fmt.Errorf("parse uploaded_at %q: %w", rec.UploadedAt, err)
	}
	return domain.Material{
		MaterialID:       rec.MaterialID,
		Title:            rec.Title,
		Subject:          rec.Subject,
		Description:      rec.Description,
		CourseCode:       rec.CourseCode,
		Tags:             rec.Tags,
		OwnerIdentifier:  rec.OwnerIdentifier,
		ObjectKey:        rec.ObjectKey,
		OriginalFilename: rec.OriginalFilename,
		UploadedAt:       uploadedAt,
	}, nil
}

// MaterialRepo provides typed DynamoDB operations for the materials table.
type MaterialRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMaterialRepo(client *dynamodb.Client, tableName string) *MaterialRepo {
	return &MaterialRepo{client: client, tableName: tableName}
}

func (r *MaterialRepo) Put(ctx context.Context, m *domain.Material) error {
	item, err := attributevalue.MarshalMap(toRecord(m))
	if err != nil {
		return fmt.Errorf("marshal material: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MaterialRepo) Get(ctx context.Context, materialID string) (*domain.Material, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("material_id", materialID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("material not found: %w", domain.ErrNotFound)
	}
	var rec materialRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	m, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByOwner returns the owner's materials newest-first via the owner-index
// GSI (uploaded_at range key, reverse order).
func (r *MaterialRepo) ListByOwner(ctx context.Context, ownerIdentifier string) ([]domain.Material, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("owner-index"),
		KeyConditionExpression:    aws.String("owner_identifier = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":o": &types.AttributeValueMemberS{Value: ownerIdentifier}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRecords(out.Items)
}

// ListAll scans the whole table and sorts newest-first. The catalog is small
// enough that a scan is acceptable for the public listing.
func (r *MaterialRepo) ListAll(ctx context.Context) ([]domain.Material, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	materials, err := unmarshalRecords(out.Items)
	if err != nil {
		return nil, err
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].UploadedAt.After(materials[j].UploadedAt)
	})
	return materials, nil
}

func (r *MaterialRepo) Delete(ctx context.Context, materialID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("material_id", materialID),
	})
	return err
}

func unmarshalRecords(items []map[string]types.AttributeValue) ([]domain.Material, error) {
	var recs []materialRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, err
	}
	materials := make([]domain.Material, 0, len(recs))
	for _, rec := range recs {
		m, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, nil
}
