package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BatchWriteItem accepts at most 25 requests per call.
const batchWriteLimit = 25

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts field->value pairs into a SET clause and the
// remove list into a REMOVE clause. Keys are sorted so the output is stable.
func buildUpdateExpr(set map[string]interface{}, remove ...string) (updateExpr, error) {
	ue := updateExpr{Names: map[string]string{}}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	if len(keys) > 0 {
		ue.Values = map[string]types.AttributeValue{}
		parts := make([]string, 0, len(keys))
		for i, k := range keys {
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":v%d", i)
			av, err := attributevalue.Marshal(set[k])
			if err != nil {
				return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
			}
			ue.Names[nameKey] = k
			ue.Values[valueKey] = av
			parts = append(parts, nameKey+" = "+valueKey)
		}
		clauses = append(clauses, "SET "+strings.Join(parts, ", "))
	}
	if len(remove) > 0 {
		parts := make([]string, 0, len(remove))
		for i, k := range remove {
			nameKey := fmt.Sprintf("#r%d", i)
			ue.Names[nameKey] = k
			parts = append(parts, nameKey)
		}
		clauses = append(clauses, "REMOVE "+strings.Join(parts, ", "))
	}
	if len(clauses) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}

// conditionFailedAt reports whether err is a cancelled transaction whose
// item at idx failed its condition check.
func conditionFailedAt(err error, idx int) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	if idx < 0 || idx >= len(tce.CancellationReasons) {
		return false
	}
	return aws.ToString(tce.CancellationReasons[idx].Code) == "ConditionalCheckFailed"
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// chunk splits keys into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// batchDelete removes the given keys from table, retrying unprocessed items
// a few times with a short backoff.
func batchDelete(ctx context.Context, client API, table string, keys []map[string]types.AttributeValue) error {
	for _, part := range chunk(keys, batchWriteLimit) {
		reqs := make([]types.WriteRequest, len(part))
		for i, k := range part {
			reqs[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}}
		}
		pending := map[string][]types.WriteRequest{table: reqs}
		for attempt := 0; len(pending[table]) > 0; attempt++ {
			if attempt == 5 {
				return fmt.Errorf("batch delete %s: %d items unprocessed", table, len(pending[table]))
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
				}
			}
			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch delete %s: %w", table, err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}
