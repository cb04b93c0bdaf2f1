package statistics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/runease-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func logOf(distance, duration domain.Measure) domain.TrainingLog {
	return domain.TrainingLog{ActualDistance: distance, ActualDuration: duration}
}

func TestAggregate_NonNumericDistanceCountsZero(t *testing.T) {
	got := Aggregate([]domain.TrainingLog{
		logOf("abc", ""),
		logOf("5.0", "30"),
	})
	assert.Equal(t, 5.0, got.TotalDistance)
	assert.Equal(t, 30, got.TotalDuration)
	assert.Equal(t, 2, got.SessionCount)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Aggregate(nil))
}

func TestAggregate_ZeroValueSessionsCount(t *testing.T) {
	got := Aggregate([]domain.TrainingLog{logOf("", ""), logOf("0", "0"), logOf("NaN", "Inf")})
	assert.Equal(t, Summary{SessionCount: 3}, got)
}

func TestAggregate_Rounding(t *testing.T) {
	got := Aggregate([]domain.TrainingLog{
		logOf("3.333", "20.4"),
		logOf("1.111", "10.3"),
		logOf(" 2 ", "0.1"),
	})
	assert.Equal(t, 6.44, got.TotalDistance)
	assert.Equal(t, 31, got.TotalDuration)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	logs := []domain.TrainingLog{logOf("1.25", "7"), logOf("x", "12"), logOf("10", "45.5")}
	reversed := []domain.TrainingLog{logs[2], logs[1], logs[0]}
	assert.Equal(t, Aggregate(logs), Aggregate(reversed))
}

func TestAggregate_OverflowingValuesAreSkipped(t *testing.T) {
	got := Aggregate([]domain.TrainingLog{
		logOf("1e308", "1e308"),
		logOf("1e308", "1e308"),
		logOf("2.5", "10"),
	})
	assert.False(t, math.IsInf(got.TotalDistance, 0))
	assert.InDelta(t, 1e308, got.TotalDistance, 1e295)
	assert.Equal(t, maxMinutes, got.TotalDuration)
	assert.Equal(t, 3, got.SessionCount)

	_, err := json.Marshal(got)
	assert.NoError(t, err)
}
