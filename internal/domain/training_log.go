package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// TrainingLog is one workout submitted by an athlete.
type TrainingLog struct {
	LogID          string    `json:"id" dynamodbav:"log_id"`
	AthleteID      string    `json:"athlete_id" dynamodbav:"athlete_id"`
	TrainingPlanID *string   `json:"training_plan_id,omitempty" dynamodbav:"training_plan_id,omitempty"`
	ActualDistance Measure   `json:"actual_distance" dynamodbav:"-"`
	ActualDuration Measure   `json:"actual_duration" dynamodbav:"-"`
	Feeling        string    `json:"feeling" dynamodbav:"feeling"`
	Notes          string    `json:"notes,omitempty" dynamodbav:"notes"`
	CoachFeedback  *string   `json:"coach_feedback,omitempty" dynamodbav:"coach_feedback,omitempty"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Measure is a numeric value as the mobile client stored it: a number, a
// numeric string, free text or nothing at all.
type Measure string

// Float parses the measure. Anything that is not a finite number yields 0.
func (m Measure) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(m)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Measure(s)
	default:
		*m = Measure(data)
	}
	return nil
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}
