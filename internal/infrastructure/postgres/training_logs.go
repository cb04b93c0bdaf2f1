package postgres

import (
	"context"
	"fmt"

	"github.com/runease-api/internal/domain"
)

// TrainingLogRepo reads workout logs from the training_logs table.
type TrainingLogRepo struct {
	db DB
}

func NewTrainingLogRepo(db DB) *TrainingLogRepo {
	return &TrainingLogRepo{db: db}
}

// ListByAthlete returns every log of the athlete, most recent first.
func (r *TrainingLogRepo) ListByAthlete(ctx context.Context, athleteID string) ([]domain.TrainingLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, athlete_id, training_plan_id,
		       COALESCE(actual_distance, ''), COALESCE(actual_duration, ''),
		       feeling, notes, coach_feedback, created_at
		FROM training_logs
		WHERE athlete_id = $1
		ORDER BY created_at DESC, id DESC`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("select training logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.TrainingLog{}
	for rows.Next() {
		var (
			l        domain.TrainingLog
			distance string
			duration string
		)
		if err := rows.Scan(
			&l.LogID, &l.AthleteID, &l.TrainingPlanID,
			&distance, &duration,
			&l.Feeling, &l.Notes, &l.CoachFeedback, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan training log: %v: %w", err, domain.ErrCorruptRecord)
		}
		l.ActualDistance = domain.Measure(distance)
		l.ActualDuration = domain.Measure(duration)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training logs: %w", err)
	}
	return logs, nil
}
