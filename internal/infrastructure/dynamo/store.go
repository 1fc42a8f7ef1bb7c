// Package dynamo implements the parcel store on DynamoDB.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/domain"
)

// Store groups the three table repos behind one value.
type Store struct {
	*ApartmentRepo
	*MemberRepo
	*NotificationRepo
}

func NewStore(client API, tables config.DynamoTables) *Store {
	return &Store{
		ApartmentRepo:    NewApartmentRepo(client, tables.Apartments),
		MemberRepo:       NewMemberRepo(client, tables.Members, tables.Apartments),
		NotificationRepo: NewNotificationRepo(client, tables.Notifications),
	}
}

// DeleteApartment removes the apartment, then its bindings, then the
// apartment reference on its ledger rows. The steps are not atomic; a
// failure part way leaves bindings that no longer resolve, which the next
// call cleans up.
func (s *Store) DeleteApartment(ctx context.Context, key domain.ApartmentKey) (bool, error) {
	existed, err := s.ApartmentRepo.delete(ctx, key)
	if err != nil {
		return false, err
	}
	if err := s.MemberRepo.deleteByApartment(ctx, key); err != nil {
		return existed, err
	}
	if err := s.NotificationRepo.detachApartment(ctx, key); err != nil {
		return existed, err
	}
	return existed, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.ApartmentRepo.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.ApartmentRepo.tableName),
	})
	if err != nil {
		return fmt.Errorf("describe table: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
