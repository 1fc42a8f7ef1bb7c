package dynamo

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"display_name": "Corner"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "display_name"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"status": "ok",
		"count":  2,
		"note":   "fragile",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "count", ue1.Names["#f0"])
	assert.Equal(t, "note", ue1.Names["#f1"])
	assert.Equal(t, "status", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_RemoveOnly(t *testing.T) {
	ue, err := buildUpdateExpr(nil, "apartment_no")
	require.NoError(t, err)
	assert.Equal(t, "REMOVE #r0", ue.Expr)
	assert.Equal(t, "apartment_no", ue.Names["#r0"])
	assert.Nil(t, ue.Values)
}

func TestBuildUpdateExpr_SetAndRemove(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"status": "ok"}, "error")
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0 REMOVE #r0", ue.Expr)
}

func TestBuildUpdateExpr_Empty_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestConditionFailedAt(t *testing.T) {
	tce := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}
	err := fmt.Errorf("bind: %w", tce)
	assert.True(t, conditionFailedAt(err, 0))
	assert.False(t, conditionFailedAt(err, 1))
	assert.False(t, conditionFailedAt(err, 5))
	assert.False(t, conditionFailedAt(fmt.Errorf("boom"), 0))
}

func TestChunk(t *testing.T) {
	items := make([]int, 53)
	parts := chunk(items, batchWriteLimit)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 25)
	assert.Len(t, parts[2], 3)
	assert.Empty(t, chunk([]int{}, batchWriteLimit))
}
