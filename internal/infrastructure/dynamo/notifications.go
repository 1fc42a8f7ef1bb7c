package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/pkg/id"
)

// notificationItem is the stored shape of a ledger row. sent_at is kept as
// unix milliseconds so range filters compare numerically.
type notificationItem struct {
	NotificationID string  `dynamodbav:"notification_id"`
	ApartmentNo    string  `dynamodbav:"apartment_no,omitempty"`
	Count          *int    `dynamodbav:"count,omitempty"`
	Note           *string `dynamodbav:"note,omitempty"`
	Status         string  `dynamodbav:"status"`
	Error          *string `dynamodbav:"error,omitempty"`
	SentAt         int64   `dynamodbav:"sent_at"`
}

func toItem(rec *domain.NotificationRecord) notificationItem {
	it := notificationItem{
		NotificationID: rec.ID,
		Count:          rec.Count,
		Note:           rec.Note,
		Status:         string(rec.Status),
		Error:          rec.Error,
		SentAt:         rec.SentAt.UnixMilli(),
	}
	if rec.ApartmentKey != nil {
		it.ApartmentNo = string(*rec.ApartmentKey)
	}
	return it
}

func (it notificationItem) record() domain.NotificationRecord {
	rec := domain.NotificationRecord{
		ID:     it.NotificationID,
		Count:  it.Count,
		Note:   it.Note,
		Status: domain.NotificationStatus(it.Status),
		Error:  it.Error,
		SentAt: time.UnixMilli(it.SentAt).UTC(),
	}
	if it.ApartmentNo != "" {
		k := domain.ApartmentKey(it.ApartmentNo)
		rec.ApartmentKey = &k
	}
	return rec
}

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, now: time.Now}
}

// AddNotification stores rec under a time-ordered ULID and fills in rec.ID.
func (r *NotificationRepo) AddNotification(ctx context.Context, rec *domain.NotificationRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = r.now()
	}
	rec.SentAt = rec.SentAt.UTC()
	rec.ID = id.At(rec.SentAt)

	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListNotificationsBefore(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("#s < :cutoff"),
		ExpressionAttributeNames: map[string]string{"#s": "sent_at"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberN{Value: fmt.Sprint(cutoff.UnixMilli())},
		},
	})
	var out []domain.NotificationRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan notifications: %w", err)
		}
		var items []notificationItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal notifications: %w", err)
		}
		for _, it := range items {
			out = append(out, it.record())
		}
	}
	return out, nil
}

func (r *NotificationRepo) PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	recs, err := r.ListNotificationsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	keys := make([]map[string]types.AttributeValue, len(recs))
	for i, rec := range recs {
		keys[i] = strKey("notification_id", rec.ID)
	}
	if err := batchDelete(ctx, r.client, r.tableName, keys); err != nil {
		return 0, err
	}
	return int64(len(recs)), nil
}

// detachApartment clears apartment_no on every ledger row that references key.
func (r *NotificationRepo) detachApartment(ctx context.Context, key domain.ApartmentKey) error {
	ue, err := buildUpdateExpr(nil, "apartment_no")
	if err != nil {
		return err
	}
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(notificationsByApartmentIndex),
		KeyConditionExpression: aws.String("apartment_no = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: string(key)},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query notifications: %w", err)
		}
		for _, item := range page.Items {
			nid, ok := item["notification_id"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
				TableName:                aws.String(r.tableName),
				Key:                      strKey("notification_id", nid.Value),
				UpdateExpression:         aws.String(ue.Expr),
				ExpressionAttributeNames: ue.Names,
				ConditionExpression:      aws.String("attribute_exists(notification_id)"),
			})
			if err != nil && !isConditionFailed(err) {
				return fmt.Errorf("detach notification %s: %w", nid.Value, err)
			}
		}
	}
	return nil
}
