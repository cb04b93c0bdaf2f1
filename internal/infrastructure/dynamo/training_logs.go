package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/runease-api/internal/domain"
)

// TrainingLogRepo reads workout logs. PK: log_id, GSI: athlete_id + created_at.
type TrainingLogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTrainingLogRepo(client *dynamodb.Client, tableName string) *TrainingLogRepo {
	return &TrainingLogRepo{client: client, tableName: tableName}
}

// ListByAthlete returns every log of the athlete, most recent first.
func (r *TrainingLogRepo) ListByAthlete(ctx context.Context, athleteID string) ([]domain.TrainingLog, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexAthleteByCreate),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldAthleteID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: athleteID}},
		ScanIndexForward:          aws.Bool(false),
	}
	logs := []domain.TrainingLog{}
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			l, err := decodeTrainingLog(item)
			if err != nil {
				return nil, err
			}
			logs = append(logs, l)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return logs, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func decodeTrainingLog(item map[string]types.AttributeValue) (domain.TrainingLog, error) {
	var l domain.TrainingLog
	if err := attributevalue.UnmarshalMap(item, &l); err != nil {
		return l, fmt.Errorf("decode training log: %v: %w", err, domain.ErrCorruptRecord)
	}
	if l.LogID == "" {
		return l, fmt.Errorf("training log without id: %w", domain.ErrCorruptRecord)
	}
	l.ActualDistance = measureFromAV(item[fieldActualDistance])
	l.ActualDuration = measureFromAV(item[fieldActualDuration])
	return l, nil
}

// measureFromAV accepts the number or string the client wrote. Other types read as empty.
func measureFromAV(av types.AttributeValue) domain.Measure {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return domain.Measure(v.Value)
	case *types.AttributeValueMemberS:
		return domain.Measure(v.Value)
	default:
		return ""
	}
}
