package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/runease-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUser_PendingCode(t *testing.T) {
	code := "042917"
	expiry := time.Date(2026, 7, 1, 10, 5, 0, 0, time.UTC)
	item, err := attributevalue.MarshalMap(domain.User{
		UserID: "u1", Email: "alice@example.com", OTPCode: &code, OTPExpiry: &expiry,
	})
	require.NoError(t, err)

	u, err := decodeUser(item)
	require.NoError(t, err)
	require.True(t, u.HasPendingCode())
	assert.Equal(t, "042917", *u.OTPCode)
	assert.True(t, expiry.Equal(*u.OTPExpiry))
}

func TestDecodeUser_ClearedCodeIsOmitted(t *testing.T) {
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "alice@example.com", IsVerified: true})
	require.NoError(t, err)
	assert.NotContains(t, item, fieldOTPCode)
	assert.NotContains(t, item, fieldOTPExpiry)
}

func TestDecodeUser_CorruptRows(t *testing.T) {
	tests := map[string]map[string]types.AttributeValue{
		"code without expiry": {
			"user_id":  &types.AttributeValueMemberS{Value: "u1"},
			"email":    &types.AttributeValueMemberS{Value: "a@b.io"},
			"otp_code": &types.AttributeValueMemberS{Value: "123456"},
		},
		"short code": {
			"user_id":    &types.AttributeValueMemberS{Value: "u1"},
			"email":      &types.AttributeValueMemberS{Value: "a@b.io"},
			"otp_code":   &types.AttributeValueMemberS{Value: "1234"},
			"otp_expiry": &types.AttributeValueMemberS{Value: "2026-07-01T10:05:00Z"},
		},
		"expiry not a time": {
			"user_id":    &types.AttributeValueMemberS{Value: "u1"},
			"email":      &types.AttributeValueMemberS{Value: "a@b.io"},
			"otp_code":   &types.AttributeValueMemberS{Value: "123456"},
			"otp_expiry": &types.AttributeValueMemberS{Value: "soon"},
		},
		"no email": {
			"user_id": &types.AttributeValueMemberS{Value: "u1"},
		},
	}
	for name, item := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeUser(item)
			assert.ErrorIs(t, err, domain.ErrCorruptRecord)
		})
	}
}

func TestIsConditionFailed(t *testing.T) {
	assert.False(t, isConditionFailed(nil))
	assert.False(t, isConditionFailed(errors.New("other")))
	assert.True(t, isConditionFailed(fmt.Errorf("op: %w", &types.ConditionalCheckFailedException{})))
}

func TestCreateInput_ReservesEmailAndUsername(t *testing.T) {
	r := &UserRepo{tableName: "users"}
	in, err := r.createInput(&domain.User{UserID: "u1", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, in.TransactItems, 3)

	var keys []string
	for _, ti := range in.TransactItems {
		require.NotNil(t, ti.Put)
		assert.Equal(t, "users", *ti.Put.TableName)
		assert.Equal(t, "attribute_not_exists(user_id)", *ti.Put.ConditionExpression)
		keys = append(keys, ti.Put.Item[fieldUserID].(*types.AttributeValueMemberS).Value)
	}
	assert.Equal(t, []string{"u1", "unique#email#alice@example.com", "unique#username#alice"}, keys)

	guard := in.TransactItems[1].Put.Item
	assert.NotContains(t, guard, fieldEmail)
	assert.NotContains(t, guard, fieldUsername)
	assert.Equal(t, "u1", guard[fieldGuardOwner].(*types.AttributeValueMemberS).Value)
}

func TestIsTxConditionFailed(t *testing.T) {
	assert.False(t, isTxConditionFailed(nil))
	assert.False(t, isTxConditionFailed(errors.New("other")))
	assert.False(t, isTxConditionFailed(&types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}},
	}))
	assert.True(t, isTxConditionFailed(fmt.Errorf("op: %w", &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	})))
}

func TestSetOTPInput_GuardsUnverified(t *testing.T) {
	r := &UserRepo{tableName: "users"}
	in, err := r.updateInput("u1", map[string]interface{}{fieldOTPCode: "123456"}, fieldIsVerified, false)
	require.NoError(t, err)
	assert.Equal(t, "attribute_exists(user_id) AND #c0 = :c0", *in.ConditionExpression)
	assert.Equal(t, fieldIsVerified, in.ExpressionAttributeNames["#c0"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, in.ExpressionAttributeValues[":c0"])
}

func TestSetOTPConflict(t *testing.T) {
	err := setOTPConflict("u1", &types.ConditionalCheckFailedException{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = setOTPConflict("u1", &types.ConditionalCheckFailedException{
		Item: map[string]types.AttributeValue{fieldIsVerified: &types.AttributeValueMemberBOOL{Value: true}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGet_GuardKeysAreNotUsers(t *testing.T) {
	_, err := (&UserRepo{}).Get(context.Background(), "unique#email#alice@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
