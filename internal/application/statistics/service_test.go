package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLogStore struct{ mock.Mock }

func (m *mockLogStore) ListByAthlete(ctx context.Context, athleteID string) ([]domain.TrainingLog, error) {
	args := m.Called(ctx, athleteID)
	logs, _ := args.Get(0).([]domain.TrainingLog)
	return logs, args.Error(1)
}

func TestForAthlete_SummaryAndMostRecentFirst(t *testing.T) {
	day := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	repo := &mockLogStore{}
	repo.On("ListByAthlete", mock.Anything, "ath-1").Return([]domain.TrainingLog{
		{LogID: "a", ActualDistance: "5", ActualDuration: "30", CreatedAt: day},
		{LogID: "c", ActualDistance: "8.5", ActualDuration: "50", CreatedAt: day.Add(48 * time.Hour)},
		{LogID: "b", ActualDistance: "easy", ActualDuration: "20", CreatedAt: day.Add(24 * time.Hour)},
	}, nil)

	got, err := NewService(repo, zerolog.Nop()).ForAthlete(context.Background(), "ath-1")
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalDistance: 13.5, TotalDuration: 100, SessionCount: 3}, got.Summary)
	require.Len(t, got.Logs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{got.Logs[0].LogID, got.Logs[1].LogID, got.Logs[2].LogID})
}

func TestForAthlete_NoLogs(t *testing.T) {
	repo := &mockLogStore{}
	repo.On("ListByAthlete", mock.Anything, "ath-2").Return(nil, nil)

	got, err := NewService(repo, zerolog.Nop()).ForAthlete(context.Background(), "ath-2")
	require.NoError(t, err)
	assert.Equal(t, Summary{}, got.Summary)
	assert.NotNil(t, got.Logs)
	assert.Empty(t, got.Logs)
}

func TestForAthlete_BlankID(t *testing.T) {
	_, err := NewService(&mockLogStore{}, zerolog.Nop()).ForAthlete(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestForAthlete_StoreError(t *testing.T) {
	repo := &mockLogStore{}
	repo.On("ListByAthlete", mock.Anything, "ath-1").Return(nil, errors.New("boom"))

	_, err := NewService(repo, zerolog.Nop()).ForAthlete(context.Background(), "ath-1")
	assert.ErrorContains(t, err, "list training logs")
}
