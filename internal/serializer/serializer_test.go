package serializer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-engine/internal/models"
	"timetable-engine/internal/serializer"
)

func TestSerialize_ShapesPayload(t *testing.T) {
	obj := int64(42)
	sol := models.TimetableSolution{
		Scheduled: []models.ScheduledEvent{
			{EventID: "G1-MATH-01", Slot: models.Slot{Day: "MON", Period: 1}, RoomID: "R1"},
		},
		TeacherAssignment: map[models.TeacherKey]string{
			{GroupID: "G1", SubjectID: "MATH"}: "T1",
		},
		ObjectiveValue:     &obj,
		ObjectiveBreakdown: map[string]int64{"teacher_gaps": 2},
	}

	out := serializer.Serialize(sol)

	scheduled, ok := out["scheduled"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "G1-MATH-01", scheduled[0]["event_id"])

	assignments, ok := out["teacher_assignment"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, assignments, 1)
	assert.Equal(t, "T1", assignments[0]["teacher_id"])

	assert.Equal(t, int64(42), out["objective_value"])

	breakdown, ok := out["objective_breakdown"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(2), breakdown["teacher_gaps"])
}

func TestSerialize_NilObjectiveValue(t *testing.T) {
	out := serializer.Serialize(models.TimetableSolution{})
	assert.Nil(t, out["objective_value"])
}
