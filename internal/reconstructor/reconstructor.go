// Package reconstructor reads a solver.Solution back into a
// models.TimetableSolution, resolving each event's chosen slot/room and
// each TeacherKey's chosen teacher.
package reconstructor

import (
	"timetable-engine/internal/modelbuilder"
	"timetable-engine/internal/models"
	"timetable-engine/internal/solver"
)

// Reconstruct builds a models.TimetableSolution from sol. When the solver
// left a choice variable ambiguous (every candidate reads 0, which should
// not happen for a feasible solution but is defended against all the same)
// it deterministically falls back to the first candidate in declaration
// order, matching the engine's documented tie-breaking rule.
func Reconstruct(sol *solver.Solution, built *modelbuilder.Built) (models.TimetableSolution, error) {
	var result models.TimetableSolution

	if sol.Status != solver.StatusOptimal && sol.Status != solver.StatusFeasible {
		return result, &models.NoSolution{Status: sol.Status.String()}
	}

	compiled := built.Compiled

	teacherAssignment := make(map[models.TeacherKey]string, len(built.A))
	for key, pool := range compiled.KeyPools {
		chosen := ""
		for _, tid := range pool {
			if v, ok := built.A[key][tid]; ok && sol.Value(v) == 1 {
				chosen = tid
				break
			}
		}
		if chosen == "" {
			if len(pool) == 0 {
				return result, &models.ModelInvariantViolation{
					Subject: keyLabel(key),
					Status:  sol.Status.String(),
					Detail:  "teacher pool was empty at reconstruction time",
				}
			}
			chosen = pool[0]
		}
		teacherAssignment[key] = chosen
	}

	eventRoom := make(map[string]string, len(compiled.Events))
	for _, e := range compiled.Events {
		rids := compiled.AllowedRooms[e.ID]
		chosen := ""
		for _, rid := range rids {
			if v, ok := built.Y[e.ID][rid]; ok && sol.Value(v) == 1 {
				chosen = rid
				break
			}
		}
		if chosen == "" {
			if len(rids) == 0 {
				return result, &models.ModelInvariantViolation{
					Subject: e.ID,
					Status:  sol.Status.String(),
					Detail:  "event had no allowed rooms at reconstruction time",
				}
			}
			chosen = rids[0]
		}
		eventRoom[e.ID] = chosen
	}

	scheduled := make([]models.ScheduledEvent, 0, len(compiled.Events))
	for _, e := range compiled.Events {
		indices := compiled.AllowedSlots[e.ID]
		chosenSI := -1
		for _, si := range indices {
			if v, ok := built.X[e.ID][si]; ok && sol.Value(v) == 1 {
				chosenSI = si
				break
			}
		}
		if chosenSI == -1 {
			if len(indices) == 0 {
				return result, &models.ModelInvariantViolation{
					Subject: e.ID,
					Status:  sol.Status.String(),
					Detail:  "event had no allowed slots at reconstruction time",
				}
			}
			chosenSI = indices[0]
		}
		scheduled = append(scheduled, models.ScheduledEvent{
			EventID: e.ID,
			Slot:    compiled.Slots[chosenSI],
			RoomID:  eventRoom[e.ID],
		})
	}

	breakdown := make(map[string]int64)
	if len(built.GapVars) > 0 {
		breakdown["teacher_gaps"] = sumValues(sol, built.GapVars)
	}
	if len(built.LateVars) > 0 {
		breakdown["teacher_late"] = sumValues(sol, built.LateVars)
	}
	if len(built.ExcessVars) > 0 {
		breakdown["subject_same_day_excess"] = sumValues(sol, built.ExcessVars)
	}
	if len(built.PrefVars) > 0 {
		breakdown["preferred_period_penalty"] = sumValues(sol, built.PrefVars)
	}
	if len(built.ForbiddenVars) > 0 {
		breakdown["forbidden_period_penalty"] = sumValues(sol, built.ForbiddenVars)
	}

	result = models.TimetableSolution{
		Scheduled:          scheduled,
		TeacherAssignment:  teacherAssignment,
		ObjectiveValue:     sol.ObjectiveValue,
		ObjectiveBreakdown: breakdown,
	}
	return result, nil
}

func sumValues(sol *solver.Solution, vars []solver.VarID) int64 {
	var total int64
	for _, v := range vars {
		total += int64(sol.Value(v))
	}
	return total
}

func keyLabel(k models.TeacherKey) string {
	return k.GroupID + "/" + k.SubjectID
}
