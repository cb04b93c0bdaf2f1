package statistics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
)

type Service interface {
	// ForAthlete returns the summary and the logs, most recent first.
	ForAthlete(ctx context.Context, athleteID string) (*AthleteStatistics, error)
}

type AthleteStatistics struct {
	Summary Summary              `json:"summary"`
	Logs    []domain.TrainingLog `json:"logs"`
}

type trainingLogStore interface {
	ListByAthlete(ctx context.Context, athleteID string) ([]domain.TrainingLog, error)
}

type service struct {
	repo trainingLogStore
	lg   zerolog.Logger
}

func NewService(repo trainingLogStore, lg zerolog.Logger) Service {
	return &service{repo: repo, lg: lg.With().Str("component", "statistics").Logger()}
}

func (s *service) ForAthlete(ctx context.Context, athleteID string) (*AthleteStatistics, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return nil, fmt.Errorf("athlete id is required: %w", domain.ErrValidation)
	}
	logs, err := s.repo.ListByAthlete(ctx, athleteID)
	if err != nil {
		s.lg.Error().Err(err).Str("athlete_id", athleteID).Msg("failed to list training logs")
		return nil, fmt.Errorf("list training logs: %w", err)
	}
	if logs == nil {
		logs = []domain.TrainingLog{}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	return &AthleteStatistics{Summary: Aggregate(logs), Logs: logs}, nil
}
