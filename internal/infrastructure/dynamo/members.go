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
)

// MemberRepo stores apartment bindings keyed by (apartment_no, line_user_id).
type MemberRepo struct {
	client          API
	tableName       string
	apartmentsTable string
	now             func() time.Time
}

func NewMemberRepo(client API, tableName, apartmentsTable string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName, apartmentsTable: apartmentsTable, now: time.Now}
}

// BindApartmentToUser checks the apartment and upserts the binding in one
// transaction. Returns false when the apartment is not registered. The
// first bound_at survives a rebind.
func (r *MemberRepo) BindApartmentToUser(ctx context.Context, key domain.ApartmentKey, userID string) (bool, error) {
	now, err := attributevalue.Marshal(r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("marshal bound_at: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(r.apartmentsTable),
				Key:                 strKey("apartment_no", string(key)),
				ConditionExpression: aws.String("attribute_exists(apartment_no)"),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       compositeKey("apartment_no", string(key), "line_user_id", userID),
				UpdateExpression:          aws.String("SET bound_at = if_not_exists(bound_at, :now)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{":now": now},
			}},
		},
	})
	if conditionFailedAt(err, 0) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bind apartment: %w", err)
	}
	return true, nil
}

// GetUserIDsByApartment returns the bound user ids in sort-key order.
func (r *MemberRepo) GetUserIDsByApartment(ctx context.Context, key domain.ApartmentKey) ([]string, error) {
	bindings, err := r.listByApartment(ctx, key)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(bindings))
	for i, b := range bindings {
		ids[i] = b.RecipientID
	}
	return ids, nil
}

func (r *MemberRepo) listByApartment(ctx context.Context, key domain.ApartmentKey) ([]domain.Binding, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("apartment_no = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: string(key)},
		},
	})
	var out []domain.Binding
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query members: %w", err)
		}
		var bindings []domain.Binding
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &bindings); err != nil {
			return nil, fmt.Errorf("unmarshal members: %w", err)
		}
		out = append(out, bindings...)
	}
	return out, nil
}

func (r *MemberRepo) deleteByApartment(ctx context.Context, key domain.ApartmentKey) error {
	bindings, err := r.listByApartment(ctx, key)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, len(bindings))
	for i, b := range bindings {
		keys[i] = compositeKey("apartment_no", string(b.ApartmentKey), "line_user_id", b.RecipientID)
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}
