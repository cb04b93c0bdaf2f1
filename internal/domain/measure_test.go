package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureFloat(t *testing.T) {
	cases := map[Measure]float64{
		"5":      5,
		" 5.25 ": 5.25,
		"abc":    0,
		"":       0,
		"NaN":    0,
		"+Inf":   0,
		"-3":     -3,
		"5km":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, in.Float(), "input %q", string(in))
	}
}

func TestMeasureUnmarshalJSON_NumberStringAndNull(t *testing.T) {
	var log TrainingLog
	require.NoError(t, json.Unmarshal([]byte(`{"actual_distance": 5.5, "actual_duration": "42"}`), &log))
	assert.Equal(t, 5.5, log.ActualDistance.Float())
	assert.Equal(t, 42.0, log.ActualDuration.Float())

	require.NoError(t, json.Unmarshal([]byte(`{"actual_distance": null, "actual_duration": "fast"}`), &log))
	assert.Equal(t, Measure(""), log.ActualDistance)
	assert.Equal(t, 0.0, log.ActualDuration.Float())
}

func TestMeasureMarshalJSON_EmptyIsNull(t *testing.T) {
	b, err := json.Marshal(struct {
		D Measure `json:"d"`
		E Measure `json:"e"`
	}{D: "", E: "3.1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d": null, "e": "3.1"}`, string(b))
}
