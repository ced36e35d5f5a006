package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-engine/internal/models"
	"timetable-engine/internal/validator"
)

func baseProblem() models.Problem {
	maxConsec := 2
	return models.Problem{
		Calendar: models.Calendar{
			Days:          []string{"MON", "TUE", "WED"},
			PeriodsPerDay: 4,
		},
		Groups:   []models.Group{{ID: "G1", Size: 20}},
		Subjects: []models.Subject{{ID: "MATH", RoomTypeRequired: models.RoomNormal}},
		Teachers: []models.Teacher{{ID: "T1", CanTeach: models.NewStringSet([]string{"MATH"})}},
		Rooms:    []models.Room{{ID: "R1", Type: models.RoomNormal, Capacity: 30}},
		Requirements: []models.CourseRequirement{
			{
				GroupID:        "G1",
				SubjectID:      "MATH",
				PeriodsPerWeek: 3,
				MaxConsecutive: &maxConsec,
				TeacherPolicy:  models.TeacherFixed,
				TeacherID:      "T1",
			},
		},
		Config: models.DefaultSolveConfig(),
	}
}

func TestValidate_OKOnSaneProblem(t *testing.T) {
	report := validator.Validate(baseProblem())
	assert.True(t, report.OK, "unexpected errors: %v", report.Errors)
}

func TestValidate_EmptyCalendarDays(t *testing.T) {
	p := baseProblem()
	p.Calendar.Days = nil

	report := validator.Validate(p)
	require.False(t, report.OK)
	assert.Contains(t, report.Errors[0], "calendar.days is empty")
}

func TestValidate_DuplicateGroupIDs(t *testing.T) {
	p := baseProblem()
	p.Groups = append(p.Groups, models.Group{ID: "G1", Size: 10})

	report := validator.Validate(p)
	require.False(t, report.OK)
	assert.Contains(t, report.Errors[0], "duplicate group ids")
}

func TestValidate_FixedTeacherCannotTeach(t *testing.T) {
	p := baseProblem()
	p.Teachers[0].CanTeach = models.NewStringSet([]string{"ART"})

	report := validator.Validate(p)
	require.False(t, report.OK)
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "cannot teach") {
			found = true
		}
	}
	assert.True(t, found, "expected a 'cannot teach' error, got: %v", report.Errors)
}

func TestValidate_NoCompatibleRoom(t *testing.T) {
	p := baseProblem()
	p.Rooms[0].Type = models.RoomLab

	report := validator.Validate(p)
	require.False(t, report.OK)
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "no room matches") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_GroupOverloaded(t *testing.T) {
	p := baseProblem()
	p.Requirements[0].PeriodsPerWeek = 999

	report := validator.Validate(p)
	require.False(t, report.OK)
}

func TestValidateStrict_ReturnsValidationFailed(t *testing.T) {
	p := baseProblem()
	p.Calendar.Days = nil

	_, err := validator.ValidateStrict(p)
	require.Error(t, err)

	var vf *models.ValidationFailed
	require.ErrorAs(t, err, &vf)
	assert.NotEmpty(t, vf.Errors)
}
