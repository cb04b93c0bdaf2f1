package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/runease-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// PK: user_id. GSIs: email-index, username-index.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Create inserts a new user together with one guard item per unique
// attribute, so a second account with the same email or username fails the
// whole transaction.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	in, err := r.createInput(u)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, in)
	if isTxConditionFailed(err) {
		return fmt.Errorf("username or email already registered: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) createInput(u *domain.User) (*dynamodb.TransactWriteItemsInput, error) {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	put := func(item map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(user_id)"),
		}}
	}
	return &dynamodb.TransactWriteItemsInput{TransactItems: []types.TransactWriteItem{
		put(item),
		put(guardItem(fieldEmail, u.Email, u.UserID)),
		put(guardItem(fieldUsername, u.Username, u.UserID)),
	}}, nil
}

// guardItem reserves value of field for owner. Guard items carry neither
// email nor username, so they never show up in the GSIs.
func guardItem(field, value, owner string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		fieldUserID:     &types.AttributeValueMemberS{Value: guardPrefix + field + "#" + value},
		fieldGuardOwner: &types.AttributeValueMemberS{Value: owner},
	}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	if strings.HasPrefix(userID, guardPrefix) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return decodeUser(out.Item)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUsername, fieldUsername, username)
}

// SetOTP stores a new code/expiry pair, replacing any outstanding one. The
// write only lands while the account is unverified.
func (r *UserRepo) SetOTP(ctx context.Context, userID, code string, expiry time.Time) error {
	in, err := r.updateInput(userID, map[string]interface{}{
		fieldOTPCode:   code,
		fieldOTPExpiry: expiry.UTC(),
	}, fieldIsVerified, false)
	if err != nil {
		return err
	}
	in.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
	_, err = r.client.UpdateItem(ctx, in)

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return setOTPConflict(userID, ccf)
	}
	return err
}

// setOTPConflict tells a missing row from one that was verified meanwhile.
func setOTPConflict(userID string, ccf *types.ConditionalCheckFailedException) error {
	if len(ccf.Item) == 0 {
		return fmt.Errorf("user %s disappeared: %w", userID, domain.ErrNotFound)
	}
	return fmt.Errorf("user %s already verified: %w", userID, domain.ErrConflict)
}

// ConsumeOTP marks the user verified and clears the code in one conditional
// write. The write only lands while otp_code still equals code.
func (r *UserRepo) ConsumeOTP(ctx context.Context, userID, code string) error {
	err := r.update(ctx, userID, map[string]interface{}{
		fieldIsVerified: true,
		fieldOTPCode:    nil,
		fieldOTPExpiry:  nil,
	}, fieldOTPCode, code)
	if isConditionFailed(err) {
		return fmt.Errorf("stored code changed: %w", domain.ErrInvalidCode)
	}
	return err
}

func (r *UserRepo) update(ctx context.Context, userID string, updates map[string]interface{}, condField string, condValue interface{}) error {
	in, err := r.updateInput(userID, updates, condField, condValue)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, in)
	return err
}

// updateInput builds an UpdateItem on an existing row, optionally guarded by
// condField = condValue.
func (r *UserRepo) updateInput(userID string, updates map[string]interface{}, condField string, condValue interface{}) (*dynamodb.UpdateItemInput, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	cond := "attribute_exists(user_id)"
	if condField != "" {
		guard, err := ue.withCondition(condField, condValue)
		if err != nil {
			return nil, err
		}
		cond += " AND " + guard
	}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	// GSI reads are eventually consistent; the OTP fields must come from a
	// strongly consistent read of the base table.
	idAttr, ok := out.Items[0][fieldUserID].(*types.AttributeValueMemberS)
	if !ok || idAttr.Value == "" {
		return nil, fmt.Errorf("%s entry without user_id: %w", index, domain.ErrCorruptRecord)
	}
	return r.Get(ctx, idAttr.Value)
}

func decodeUser(item map[string]types.AttributeValue) (*domain.User, error) {
	var u domain.User
	if err := attributevalue.UnmarshalMap(item, &u); err != nil {
		return nil, fmt.Errorf("decode user: %v: %w", err, domain.ErrCorruptRecord)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

func isTxConditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if err == nil || !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
