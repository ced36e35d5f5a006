package modelbuilder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-engine/internal/compiler"
	"timetable-engine/internal/modelbuilder"
	"timetable-engine/internal/models"
	"timetable-engine/internal/solver"
)

func tinyProblem() models.Problem {
	return models.Problem{
		Calendar: models.Calendar{Days: []string{"MON"}, PeriodsPerDay: 1},
		Groups:   []models.Group{{ID: "G1", Size: 10}},
		Subjects: []models.Subject{{ID: "MATH", RoomTypeRequired: models.RoomNormal}},
		Teachers: []models.Teacher{{ID: "T1", CanTeach: models.NewStringSet([]string{"MATH"})}},
		Rooms:    []models.Room{{ID: "R1", Type: models.RoomNormal, Capacity: 30}},
		Requirements: []models.CourseRequirement{
			{GroupID: "G1", SubjectID: "MATH", PeriodsPerWeek: 1, TeacherPolicy: models.TeacherFixed, TeacherID: "T1"},
		},
		Config: models.DefaultSolveConfig(),
	}
}

func TestBuild_TinyProblemSolvesToPlacement(t *testing.T) {
	problem := tinyProblem()
	compiled, err := compiler.Compile(problem)
	require.NoError(t, err)

	built, err := modelbuilder.Build(problem, compiled)
	require.NoError(t, err)

	sol, err := built.Model.Solve(context.Background(), 5)
	require.NoError(t, err)
	require.Contains(t, []solver.Status{solver.StatusOptimal, solver.StatusFeasible}, sol.Status)

	eventID := "G1-MATH-01"
	placed := false
	for si, v := range built.X[eventID] {
		if sol.Value(v) == 1 {
			placed = true
			assert.Equal(t, 0, si)
		}
	}
	assert.True(t, placed, "expected the single event to be placed somewhere")

	roomChosen := false
	for _, v := range built.Y[eventID] {
		if sol.Value(v) == 1 {
			roomChosen = true
		}
	}
	assert.True(t, roomChosen)

	key := models.TeacherKey{GroupID: "G1", SubjectID: "MATH"}
	assert.Equal(t, 1, sol.Value(built.A[key]["T1"]))
}

func TestBuild_MultiEventNoRoomOrTeacherDoubleBooking(t *testing.T) {
	problem := models.Problem{
		Calendar: models.Calendar{Days: []string{"MON"}, PeriodsPerDay: 2},
		Groups:   []models.Group{{ID: "G1", Size: 10}, {ID: "G2", Size: 10}},
		Subjects: []models.Subject{{ID: "MATH", RoomTypeRequired: models.RoomNormal}},
		Teachers: []models.Teacher{{ID: "T1", CanTeach: models.NewStringSet([]string{"MATH"})}},
		Rooms:    []models.Room{{ID: "R1", Type: models.RoomNormal, Capacity: 30}},
		Requirements: []models.CourseRequirement{
			{GroupID: "G1", SubjectID: "MATH", PeriodsPerWeek: 1, TeacherPolicy: models.TeacherFixed, TeacherID: "T1"},
			{GroupID: "G2", SubjectID: "MATH", PeriodsPerWeek: 1, TeacherPolicy: models.TeacherFixed, TeacherID: "T1"},
		},
		Config: models.DefaultSolveConfig(),
	}

	compiled, err := compiler.Compile(problem)
	require.NoError(t, err)

	built, err := modelbuilder.Build(problem, compiled)
	require.NoError(t, err)

	sol, err := built.Model.Solve(context.Background(), 5)
	require.NoError(t, err)
	require.Contains(t, []solver.Status{solver.StatusOptimal, solver.StatusFeasible}, sol.Status)

	slotOf := func(eventID string) int {
		for si, v := range built.X[eventID] {
			if sol.Value(v) == 1 {
				return si
			}
		}
		t.Fatalf("event %s was not placed", eventID)
		return -1
	}

	assert.NotEqual(t, slotOf("G1-MATH-01"), slotOf("G2-MATH-01"), "one teacher cannot teach both groups in the same slot")
}
