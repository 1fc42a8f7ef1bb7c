package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/parcel-notify/internal/domain"
)

// ApartmentRepo provides typed DynamoDB operations for the apartments table.
type ApartmentRepo struct {
	client    API
	tableName string
}

func NewApartmentRepo(client API, tableName string) *ApartmentRepo {
	return &ApartmentRepo{client: client, tableName: tableName}
}

func (r *ApartmentRepo) ListApartments(ctx context.Context) ([]domain.Apartment, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var out []domain.Apartment
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan apartments: %w", err)
		}
		var apts []domain.Apartment
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &apts); err != nil {
			return nil, fmt.Errorf("unmarshal apartments: %w", err)
		}
		out = append(out, apts...)
	}
	for i := range out {
		out[i].DisplayName = out[i].Label()
	}
	domain.SortApartments(out)
	return out, nil
}

func (r *ApartmentRepo) CountApartments(ctx context.Context) (int, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Select:    types.SelectCount,
	})
	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count apartments: %w", err)
		}
		n += int(page.Count)
	}
	return n, nil
}

func (r *ApartmentRepo) ApartmentExists(ctx context.Context, key domain.ApartmentKey) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  strKey("apartment_no", string(key)),
		ProjectionExpression: aws.String("apartment_no"),
	})
	if err != nil {
		return false, fmt.Errorf("get apartment: %w", err)
	}
	return out.Item != nil, nil
}

// UpsertApartment writes apt only when the key is new.
func (r *ApartmentRepo) UpsertApartment(ctx context.Context, apt domain.Apartment) (bool, error) {
	item, err := attributevalue.MarshalMap(apt)
	if err != nil {
		return false, fmt.Errorf("marshal apartment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(apartment_no)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("put apartment: %w", err)
	}
	return true, nil
}

func (r *ApartmentRepo) delete(ctx context.Context, key domain.ApartmentKey) (bool, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey("apartment_no", string(key)),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("delete apartment: %w", err)
	}
	return len(out.Attributes) > 0, nil
}
