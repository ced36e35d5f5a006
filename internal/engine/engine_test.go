package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-engine/internal/models"
)

func calendar(days []string, periodsPerDay int) map[string]any {
	return map[string]any{
		"days":            toAnySlice(days),
		"periods_per_day": periodsPerDay,
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// S1 — empty problem: all collections empty, periods_per_day=0.
func TestS1_EmptyProblem(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar(nil, 0),
	}

	report, err := Validate(raw)
	require.NoError(t, err)
	assert.False(t, report.OK)
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "days") {
			found = true
		}
	}
	assert.True(t, found, "expected an error naming the empty calendar days, got %v", report.Errors)
}

func minimalFeasibleProblem() map[string]any {
	return map[string]any{
		"calendar": calendar([]string{"mon", "tue"}, 6),
		"groups": []any{
			map[string]any{"id": "G1", "size": 20},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 20},
		},
		"requirements": []any{
			map[string]any{
				"group_id":         "G1",
				"subject_id":       "MATH",
				"periods_per_week": 3,
				"teacher_policy":   "CHOOSE",
			},
		},
	}
}

// S2 — minimal feasible problem.
func TestS2_MinimalFeasible(t *testing.T) {
	raw := minimalFeasibleProblem()

	report, err := Validate(raw)
	require.NoError(t, err)
	assert.True(t, report.OK, "errors: %v", report.Errors)

	result, err := Solve(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, result.Solution.Scheduled, 3)

	seenSlots := make(map[models.Slot]bool)
	for _, se := range result.Solution.Scheduled {
		assert.Equal(t, "R1", se.RoomID)
		assert.False(t, seenSlots[se.Slot], "two events landed in the same slot: %v", se.Slot)
		seenSlots[se.Slot] = true
	}

	key := models.TeacherKey{GroupID: "G1", SubjectID: "MATH"}
	assert.Equal(t, "T1", result.Solution.TeacherAssignment[key])
}

// S3 — forced teacher conflict: two groups share a FIXED teacher, only two
// slots exist, so the solver must place them in different slots.
func TestS3_ForcedTeacherConflict(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar([]string{"mon"}, 2),
		"groups": []any{
			map[string]any{"id": "G1", "size": 10},
			map[string]any{"id": "G2", "size": 10},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 10},
			map[string]any{"id": "R2", "type": "NORMAL", "capacity": 10},
		},
		"requirements": []any{
			map[string]any{"group_id": "G1", "subject_id": "MATH", "periods_per_week": 1, "teacher_policy": "FIXED", "teacher_id": "T1"},
			map[string]any{"group_id": "G2", "subject_id": "MATH", "periods_per_week": 1, "teacher_policy": "FIXED", "teacher_id": "T1"},
		},
	}

	result, err := Solve(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, result.Solution.Scheduled, 2)
	assert.NotEqual(t, result.Solution.Scheduled[0].Slot, result.Solution.Scheduled[1].Slot)
}

// S4 — infeasible by load: a group's weekly requirement exceeds the number
// of teaching slots available.
func TestS4_InfeasibleByLoad(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar([]string{"mon"}, 5),
		"groups": []any{
			map[string]any{"id": "G1", "size": 10},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 10},
		},
		"requirements": []any{
			map[string]any{"group_id": "G1", "subject_id": "MATH", "periods_per_week": 7, "teacher_policy": "CHOOSE"},
		},
	}

	report, err := Validate(raw)
	require.NoError(t, err)
	assert.False(t, report.OK)

	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "G1") {
			found = true
		}
	}
	assert.True(t, found, "expected an error naming group G1, got %v", report.Errors)
}

// S5 — hard forbidden periods: with forbidden_periods_hard=true, every
// scheduled event must land outside the forbidden set.
func TestS5_HardForbiddenPeriods(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar([]string{"mon", "tue", "wed", "thu", "fri"}, 3),
		"groups": []any{
			map[string]any{"id": "G1", "size": 10},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 10},
		},
		"requirements": []any{
			map[string]any{
				"group_id": "G1", "subject_id": "MATH", "periods_per_week": 3,
				"teacher_policy": "CHOOSE", "forbidden_periods": []any{1, 2},
			},
		},
		"config": map[string]any{"forbidden_periods_hard": true},
	}

	result, err := Solve(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, result.Solution.Scheduled, 3)
	for _, se := range result.Solution.Scheduled {
		assert.Equal(t, 3, se.Slot.Period)
	}
}

// S6 — max-consecutive cap: four periods/week on a single day, all four
// slots required, capped at two consecutive periods. The load check alone
// calls this feasible (4 required == 4 slots available), but the
// sliding-window constraint the model builder adds forbids any 3-in-a-row,
// so every assignment that uses all four slots violates it: the solver
// comes back infeasible.
func TestS6_MaxConsecutiveCap(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar([]string{"mon"}, 4),
		"groups": []any{
			map[string]any{"id": "G1", "size": 10},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 10},
		},
		"requirements": []any{
			map[string]any{
				"group_id": "G1", "subject_id": "MATH", "periods_per_week": 4,
				"teacher_policy": "CHOOSE", "max_consecutive": 2,
			},
		},
	}

	report, err := Validate(raw)
	require.NoError(t, err)
	assert.True(t, report.OK, "load check alone sees 4 required == 4 slots available: %v", report.Errors)

	_, err = Solve(context.Background(), raw)
	require.Error(t, err)
	var noSolution *models.NoSolution
	assert.ErrorAs(t, err, &noSolution)
}

// Universal invariant 1: every compiled event has non-empty allowed slots
// and rooms. The validator's strict pass already rejects a requirement
// whose possible-slot count can't cover periods_per_week, so a problem with
// a teacher unavailable during every teaching slot never reaches the
// compiler at all — it fails validation first.
func TestInvariant_EmptyDomainsAreCaughtByValidationBeforeCompile(t *testing.T) {
	raw := map[string]any{
		"calendar": calendar([]string{"mon"}, 2),
		"groups": []any{
			map[string]any{"id": "G1", "size": 10},
		},
		"subjects": []any{
			map[string]any{"id": "MATH", "room_type_required": "NORMAL"},
		},
		"teachers": []any{
			map[string]any{"id": "T1", "can_teach": []any{"MATH"}, "unavailable": []any{
				map[string]any{"day": "mon", "period": 1},
				map[string]any{"day": "mon", "period": 2},
			}},
		},
		"rooms": []any{
			map[string]any{"id": "R1", "type": "NORMAL", "capacity": 10},
		},
		"requirements": []any{
			map[string]any{"group_id": "G1", "subject_id": "MATH", "periods_per_week": 1, "teacher_policy": "FIXED", "teacher_id": "T1"},
		},
	}

	report, err := Validate(raw)
	require.NoError(t, err)
	assert.False(t, report.OK)

	_, err = Solve(context.Background(), raw)
	require.Error(t, err)
	var validationFailed *models.ValidationFailed
	assert.ErrorAs(t, err, &validationFailed)
}

// Universal invariant 2: the scheduled count equals the sum of requested
// periods per week and every event appears once. That no two events of a
// group share a slot is checked by the S2 scenario test.
func TestInvariant_ScheduledCountMatchesDemand(t *testing.T) {
	raw := minimalFeasibleProblem()
	result, err := Solve(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, result.Solution.Scheduled, 3)

	seen := make(map[string]bool)
	for _, se := range result.Solution.Scheduled {
		assert.False(t, seen[se.EventID], "event %s scheduled twice", se.EventID)
		seen[se.EventID] = true
	}
}

// Universal invariant 5: ObjectiveValue, when set, equals the sum of each
// ObjectiveBreakdown term multiplied by its configured weight.
func TestInvariant_ObjectiveValueMatchesBreakdownSum(t *testing.T) {
	raw := minimalFeasibleProblem()
	result, err := Solve(context.Background(), raw)
	require.NoError(t, err)

	if result.Solution.ObjectiveValue == nil {
		return
	}
	w := result.Problem.Config.Weights
	weightOf := map[string]int64{
		"teacher_gaps":             int64(w.TeacherGaps),
		"teacher_late":             int64(w.TeacherLate),
		"subject_same_day_excess":  int64(w.SubjectSameDayExcess),
		"preferred_period_penalty": int64(w.PreferredPeriodPenalty),
		"forbidden_period_penalty": int64(w.ForbiddenPeriodPenalty),
	}
	var sum int64
	for term, v := range result.Solution.ObjectiveBreakdown {
		weight, ok := weightOf[term]
		require.True(t, ok, "unexpected breakdown term %q", term)
		sum += weight * v
	}
	assert.Equal(t, *result.Solution.ObjectiveValue, sum)
}

// Universal invariant 6: running the validator twice on the same problem
// yields identical reports.
func TestInvariant_ValidatorIsIdempotent(t *testing.T) {
	raw := minimalFeasibleProblem()
	first, err := Validate(raw)
	require.NoError(t, err)
	second, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate_MalformedPayloadReturnsParseError(t *testing.T) {
	_, err := Validate(map[string]any{})
	require.Error(t, err)
	var parseErr *models.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSolveAndSerialize_ShapesPayload(t *testing.T) {
	raw := minimalFeasibleProblem()
	out, err := SolveAndSerialize(context.Background(), raw)
	require.NoError(t, err)
	assert.Contains(t, out, "scheduled")
	assert.Contains(t, out, "teacher_assignment")
	assert.Contains(t, out, "objective_value")
}
