// Package deserializer turns an untyped payload tree (the shape a JSON
// decoder into map[string]any/[]any produces) into a fully-typed
// models.Problem, applying the default values spec.md §4.1 names.
package deserializer

import (
	"fmt"

	"timetable-engine/internal/models"
)

// Deserialize parses raw into a models.Problem. On any structural error or
// unknown enum string it returns a *models.ParseError naming the offending
// path.
func Deserialize(raw map[string]any) (models.Problem, error) {
	var problem models.Problem

	calRaw, err := requireMap(raw, "calendar")
	if err != nil {
		return problem, err
	}
	cal, err := parseCalendar(calRaw)
	if err != nil {
		return problem, err
	}
	problem.Calendar = cal

	groups, err := parseGroups(raw)
	if err != nil {
		return problem, err
	}
	problem.Groups = groups

	subjects, err := parseSubjects(raw)
	if err != nil {
		return problem, err
	}
	problem.Subjects = subjects

	teachers, err := parseTeachers(raw)
	if err != nil {
		return problem, err
	}
	problem.Teachers = teachers

	rooms, err := parseRooms(raw)
	if err != nil {
		return problem, err
	}
	problem.Rooms = rooms

	requirements, err := parseRequirements(raw)
	if err != nil {
		return problem, err
	}
	problem.Requirements = requirements

	cfg, err := parseConfig(raw)
	if err != nil {
		return problem, err
	}
	problem.Config = cfg

	return problem, nil
}

func parseErr(path string, value any, err error) error {
	return &models.ParseError{Path: path, Value: fmt.Sprint(value), Err: err}
}

// --- generic tree accessors -------------------------------------------------

func requireMap(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, parseErr(key, nil, fmt.Errorf("missing required field"))
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, parseErr(key, v, fmt.Errorf("expected an object"))
	}
	return m, nil
}

func optionalMap(raw map[string]any, key string) map[string]any {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func optionalList(raw map[string]any, key string) []any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	list, _ := v.([]any)
	return list
}

func requireString(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", parseErr(path, nil, fmt.Errorf("missing required field %q", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", parseErr(path, v, fmt.Errorf("expected a string for %q", key))
	}
	return s, nil
}

func optionalString(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	s, _ := v.(string)
	return s
}

// toInt accepts float64 (as produced by encoding/json) and int alike.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func requireInt(m map[string]any, key, path string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, parseErr(path, nil, fmt.Errorf("missing required field %q", key))
	}
	n, ok := toInt(v)
	if !ok {
		return 0, parseErr(path, v, fmt.Errorf("expected a number for %q", key))
	}
	return n, nil
}

func optionalInt(m map[string]any, key string, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, parseErr(key, v, fmt.Errorf("expected a number for %q", key))
	}
	return n, nil
}

func optionalIntPtr(m map[string]any, key, path string) (*int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil, parseErr(path, v, fmt.Errorf("expected a number for %q", key))
	}
	return &n, nil
}

func optionalBool(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	b, _ := v.(bool)
	return b
}

func stringList(list []any, path string) ([]string, error) {
	out := make([]string, 0, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, parseErr(fmt.Sprintf("%s[%d]", path, i), v, fmt.Errorf("expected a string"))
		}
		out = append(out, s)
	}
	return out, nil
}

// --- section parsers ---------------------------------------------------------

func parseCalendar(m map[string]any) (models.Calendar, error) {
	var cal models.Calendar

	daysRaw, ok := m["days"].([]any)
	if !ok {
		return cal, parseErr("calendar.days", m["days"], fmt.Errorf("expected a list of strings"))
	}
	days, err := stringList(daysRaw, "calendar.days")
	if err != nil {
		return cal, err
	}
	cal.Days = days

	periods, err := requireInt(m, "periods_per_day", "calendar.periods_per_day")
	if err != nil {
		return cal, err
	}
	cal.PeriodsPerDay = periods

	blocked, err := parseSlots(optionalList(m, "blocked_slots"), "calendar.blocked_slots")
	if err != nil {
		return cal, err
	}
	cal.BlockedSlots = models.NewSlotSet(blocked)

	return cal, nil
}

func parseSlots(list []any, path string) ([]models.Slot, error) {
	out := make([]models.Slot, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("%s[%d]", path, i), v, fmt.Errorf("expected an object"))
		}
		day, err := requireString(m, "day", fmt.Sprintf("%s[%d].day", path, i))
		if err != nil {
			return nil, err
		}
		period, err := requireInt(m, "period", fmt.Sprintf("%s[%d].period", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Slot{Day: day, Period: period})
	}
	return out, nil
}

func parseGroups(raw map[string]any) ([]models.Group, error) {
	list := optionalList(raw, "groups")
	out := make([]models.Group, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("groups[%d]", i), v, fmt.Errorf("expected an object"))
		}
		id, err := requireString(m, "id", fmt.Sprintf("groups[%d].id", i))
		if err != nil {
			return nil, err
		}
		size, err := requireInt(m, "size", fmt.Sprintf("groups[%d].size", i))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Group{ID: id, Size: size})
	}
	return out, nil
}

func parseSubjects(raw map[string]any) ([]models.Subject, error) {
	list := optionalList(raw, "subjects")
	out := make([]models.Subject, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("subjects[%d]", i), v, fmt.Errorf("expected an object"))
		}
		id, err := requireString(m, "id", fmt.Sprintf("subjects[%d].id", i))
		if err != nil {
			return nil, err
		}
		rt := optionalString(m, "room_type_required", string(models.RoomNormal))
		if !models.ValidRoomType(rt) {
			return nil, parseErr(fmt.Sprintf("subjects[%d].room_type_required", i), rt, fmt.Errorf("unknown room type"))
		}
		maxPerDay, err := optionalIntPtr(m, "max_per_day", fmt.Sprintf("subjects[%d].max_per_day", i))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Subject{ID: id, RoomTypeRequired: models.RoomType(rt), MaxPerDay: maxPerDay})
	}
	return out, nil
}

func parseTeachers(raw map[string]any) ([]models.Teacher, error) {
	list := optionalList(raw, "teachers")
	out := make([]models.Teacher, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("teachers[%d]", i), v, fmt.Errorf("expected an object"))
		}
		id, err := requireString(m, "id", fmt.Sprintf("teachers[%d].id", i))
		if err != nil {
			return nil, err
		}
		canTeachRaw, err := stringList(optionalList(m, "can_teach"), fmt.Sprintf("teachers[%d].can_teach", i))
		if err != nil {
			return nil, err
		}
		unavail, err := parseSlots(optionalList(m, "unavailable"), fmt.Sprintf("teachers[%d].unavailable", i))
		if err != nil {
			return nil, err
		}
		minPD, err := optionalIntPtr(m, "min_periods_per_day", fmt.Sprintf("teachers[%d].min_periods_per_day", i))
		if err != nil {
			return nil, err
		}
		maxPD, err := optionalIntPtr(m, "max_periods_per_day", fmt.Sprintf("teachers[%d].max_periods_per_day", i))
		if err != nil {
			return nil, err
		}
		minPW, err := optionalIntPtr(m, "min_periods_per_week", fmt.Sprintf("teachers[%d].min_periods_per_week", i))
		if err != nil {
			return nil, err
		}
		maxPW, err := optionalIntPtr(m, "max_periods_per_week", fmt.Sprintf("teachers[%d].max_periods_per_week", i))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Teacher{
			ID:                id,
			CanTeach:          models.NewStringSet(canTeachRaw),
			Unavailable:       models.NewSlotSet(unavail),
			MinPeriodsPerDay:  minPD,
			MaxPeriodsPerDay:  maxPD,
			MinPeriodsPerWeek: minPW,
			MaxPeriodsPerWeek: maxPW,
		})
	}
	return out, nil
}

func parseRooms(raw map[string]any) ([]models.Room, error) {
	list := optionalList(raw, "rooms")
	out := make([]models.Room, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("rooms[%d]", i), v, fmt.Errorf("expected an object"))
		}
		id, err := requireString(m, "id", fmt.Sprintf("rooms[%d].id", i))
		if err != nil {
			return nil, err
		}
		rt := optionalString(m, "type", string(models.RoomNormal))
		if !models.ValidRoomType(rt) {
			return nil, parseErr(fmt.Sprintf("rooms[%d].type", i), rt, fmt.Errorf("unknown room type"))
		}
		capacity, err := optionalInt(m, "capacity", 9999)
		if err != nil {
			return nil, err
		}
		unavail, err := parseSlots(optionalList(m, "unavailable"), fmt.Sprintf("rooms[%d].unavailable", i))
		if err != nil {
			return nil, err
		}
		out = append(out, models.Room{
			ID:          id,
			Type:        models.RoomType(rt),
			Capacity:    capacity,
			Unavailable: models.NewSlotSet(unavail),
		})
	}
	return out, nil
}

func parseRequirements(raw map[string]any) ([]models.CourseRequirement, error) {
	list := optionalList(raw, "requirements")
	out := make([]models.CourseRequirement, 0, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, parseErr(fmt.Sprintf("requirements[%d]", i), v, fmt.Errorf("expected an object"))
		}
		groupID, err := requireString(m, "group_id", fmt.Sprintf("requirements[%d].group_id", i))
		if err != nil {
			return nil, err
		}
		subjectID, err := requireString(m, "subject_id", fmt.Sprintf("requirements[%d].subject_id", i))
		if err != nil {
			return nil, err
		}
		periodsPerWeek, err := requireInt(m, "periods_per_week", fmt.Sprintf("requirements[%d].periods_per_week", i))
		if err != nil {
			return nil, err
		}
		maxConsecutive, err := optionalIntPtr(m, "max_consecutive", fmt.Sprintf("requirements[%d].max_consecutive", i))
		if err != nil {
			return nil, err
		}
		if maxConsecutive == nil {
			def := 2
			maxConsecutive = &def
		}
		policyStr := optionalString(m, "teacher_policy", string(models.TeacherFixed))
		if !models.ValidTeacherPolicy(policyStr) {
			return nil, parseErr(fmt.Sprintf("requirements[%d].teacher_policy", i), policyStr, fmt.Errorf("unknown teacher_policy"))
		}
		teacherID := optionalString(m, "teacher_id", "")
		var teacherPool []string
		if poolRaw, ok := m["teacher_pool"]; ok && poolRaw != nil {
			list, ok := poolRaw.([]any)
			if !ok {
				return nil, parseErr(fmt.Sprintf("requirements[%d].teacher_pool", i), poolRaw, fmt.Errorf("expected a list"))
			}
			teacherPool, err = stringList(list, fmt.Sprintf("requirements[%d].teacher_pool", i))
			if err != nil {
				return nil, err
			}
		}
		preferred, err := optionalIntSet(m, "preferred_periods", fmt.Sprintf("requirements[%d].preferred_periods", i))
		if err != nil {
			return nil, err
		}
		forbidden, err := optionalIntSet(m, "forbidden_periods", fmt.Sprintf("requirements[%d].forbidden_periods", i))
		if err != nil {
			return nil, err
		}
		allowDouble := optionalBool(m, "allow_double", false)

		out = append(out, models.CourseRequirement{
			GroupID:          groupID,
			SubjectID:        subjectID,
			PeriodsPerWeek:   periodsPerWeek,
			MaxConsecutive:   maxConsecutive,
			TeacherPolicy:    models.TeacherPolicy(policyStr),
			TeacherID:        teacherID,
			TeacherPool:      teacherPool,
			PreferredPeriods: preferred,
			ForbiddenPeriods: forbidden,
			AllowDouble:      allowDouble,
		})
	}
	return out, nil
}

func optionalIntSet(m map[string]any, key, path string) (models.IntSet, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, parseErr(path, v, fmt.Errorf("expected a list of numbers"))
	}
	values := make([]int, 0, len(list))
	for i, item := range list {
		n, ok := toInt(item)
		if !ok {
			return nil, parseErr(fmt.Sprintf("%s[%d]", path, i), item, fmt.Errorf("expected a number"))
		}
		values = append(values, n)
	}
	return models.NewIntSet(values), nil
}

func parseConfig(raw map[string]any) (models.SolveConfig, error) {
	cfg := models.DefaultSolveConfig()

	cfgRaw := optionalMap(raw, "config")
	if cfgRaw == nil {
		return cfg, nil
	}

	maxSeconds, err := optionalInt(cfgRaw, "max_seconds", cfg.MaxSeconds)
	if err != nil {
		return cfg, err
	}
	cfg.MaxSeconds = maxSeconds

	if seedRaw, ok := cfgRaw["random_seed"]; ok && seedRaw != nil {
		n, ok := toInt(seedRaw)
		if !ok {
			return cfg, parseErr("config.random_seed", seedRaw, fmt.Errorf("expected a number"))
		}
		seed := int64(n)
		cfg.RandomSeed = &seed
	}

	cfg.ForbiddenPeriodsHard = optionalBool(cfgRaw, "forbidden_periods_hard", cfg.ForbiddenPeriodsHard)

	weightsRaw := optionalMap(cfgRaw, "weights")
	if weightsRaw != nil {
		w := cfg.Weights
		w.TeacherGaps, err = optionalInt(weightsRaw, "teacher_gaps", w.TeacherGaps)
		if err != nil {
			return cfg, err
		}
		w.TeacherLate, err = optionalInt(weightsRaw, "teacher_late", w.TeacherLate)
		if err != nil {
			return cfg, err
		}
		w.SubjectSameDayExcess, err = optionalInt(weightsRaw, "subject_same_day_excess", w.SubjectSameDayExcess)
		if err != nil {
			return cfg, err
		}
		w.PreferredPeriodPenalty, err = optionalInt(weightsRaw, "preferred_period_penalty", w.PreferredPeriodPenalty)
		if err != nil {
			return cfg, err
		}
		w.ForbiddenPeriodPenalty, err = optionalInt(weightsRaw, "forbidden_period_penalty", w.ForbiddenPeriodPenalty)
		if err != nil {
			return cfg, err
		}
		cfg.Weights = w
	}

	return cfg, nil
}
