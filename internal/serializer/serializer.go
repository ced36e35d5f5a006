// Package serializer turns a models.TimetableSolution into the plain
// map[string]any payload shape clients receive over the wire.
package serializer

import (
	"sort"

	"timetable-engine/internal/models"
)

// Serialize converts sol into an ordered, JSON-marshalable payload. Output
// keys match spec-level wire contracts: "scheduled", "teacher_assignment",
// "objective_value", "objective_breakdown".
func Serialize(sol models.TimetableSolution) map[string]any {
	scheduled := make([]map[string]any, 0, len(sol.Scheduled))
	for _, se := range sol.Scheduled {
		scheduled = append(scheduled, map[string]any{
			"event_id": se.EventID,
			"slot": map[string]any{
				"day":    se.Slot.Day,
				"period": se.Slot.Period,
			},
			"room_id": se.RoomID,
		})
	}

	keys := make([]models.TeacherKey, 0, len(sol.TeacherAssignment))
	for k := range sol.TeacherAssignment {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GroupID != keys[j].GroupID {
			return keys[i].GroupID < keys[j].GroupID
		}
		return keys[i].SubjectID < keys[j].SubjectID
	})

	teacherAssignment := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		teacherAssignment = append(teacherAssignment, map[string]any{
			"group_id":   k.GroupID,
			"subject_id": k.SubjectID,
			"teacher_id": sol.TeacherAssignment[k],
		})
	}

	var objectiveValue any
	if sol.ObjectiveValue != nil {
		objectiveValue = *sol.ObjectiveValue
	}

	breakdown := make(map[string]any, len(sol.ObjectiveBreakdown))
	for k, v := range sol.ObjectiveBreakdown {
		breakdown[k] = v
	}

	return map[string]any{
		"scheduled":           scheduled,
		"teacher_assignment":  teacherAssignment,
		"objective_value":     objectiveValue,
		"objective_breakdown": breakdown,
	}
}
