package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-engine/internal/compiler"
	"timetable-engine/internal/models"
)

func baseProblem() models.Problem {
	return models.Problem{
		Calendar: models.Calendar{Days: []string{"MON", "TUE"}, PeriodsPerDay: 3},
		Groups:   []models.Group{{ID: "G1", Size: 20}},
		Subjects: []models.Subject{{ID: "MATH", RoomTypeRequired: models.RoomNormal}},
		Teachers: []models.Teacher{{ID: "T1", CanTeach: models.NewStringSet([]string{"MATH"})}},
		Rooms:    []models.Room{{ID: "R1", Type: models.RoomNormal, Capacity: 30}},
		Requirements: []models.CourseRequirement{
			{GroupID: "G1", SubjectID: "MATH", PeriodsPerWeek: 2, TeacherPolicy: models.TeacherFixed, TeacherID: "T1"},
		},
		Config: models.DefaultSolveConfig(),
	}
}

func TestCompile_ExpandsUnitEvents(t *testing.T) {
	c, err := compiler.Compile(baseProblem())
	require.NoError(t, err)

	require.Len(t, c.Events, 2)
	assert.Equal(t, "G1-MATH-01", c.Events[0].ID)
	assert.Equal(t, "G1-MATH-02", c.Events[1].ID)

	for _, e := range c.Events {
		assert.NotEmpty(t, c.AllowedSlots[e.ID])
		assert.Equal(t, []string{"R1"}, c.AllowedRooms[e.ID])
	}

	key := models.TeacherKey{GroupID: "G1", SubjectID: "MATH"}
	assert.Equal(t, []string{"T1"}, c.KeyPools[key])
}

func TestCompile_NoCompatibleRoom(t *testing.T) {
	p := baseProblem()
	p.Rooms[0].Type = models.RoomLab

	_, err := compiler.Compile(p)
	require.Error(t, err)

	var compileErr *models.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.ErrorIs(t, compileErr, models.ErrEventNoAllowedRooms)
}

func TestCompile_NoAllowedSlotsAfterForbidden(t *testing.T) {
	p := baseProblem()
	p.Requirements[0].ForbiddenPeriods = models.NewIntSet([]int{1, 2, 3})

	_, err := compiler.Compile(p)
	require.Error(t, err)

	var compileErr *models.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.ErrorIs(t, compileErr, models.ErrEventNoAllowedSlots)
}

func TestCompile_EmptyTeacherPool(t *testing.T) {
	p := baseProblem()
	p.Requirements[0].TeacherPolicy = models.TeacherChoose
	p.Requirements[0].TeacherID = ""
	p.Teachers[0].CanTeach = models.NewStringSet(nil)

	_, err := compiler.Compile(p)
	require.Error(t, err)

	var compileErr *models.CompileError
	require.ErrorAs(t, err, &compileErr)
}
