// Package validator checks a models.Problem for structural soundness before
// it reaches the compiler, catching broken references and instances that
// are provably infeasible without ever invoking the solver.
package validator

import (
	"fmt"
	"sort"

	"timetable-engine/internal/models"
)

// Report is the aggregated result of Validate. OK is true iff Errors is
// empty; Warnings never affect OK.
type Report struct {
	OK       bool
	Errors   []string
	Warnings []string
}

// Validate runs every check against problem and returns the aggregated
// Report. It never returns an error itself; use ValidateStrict to turn a
// non-OK report into a models.ValidationFailed.
func Validate(problem models.Problem) Report {
	var errs, warnings []string

	validateCalendar(problem.Calendar, &errs, &warnings)
	validateUniqueness(problem, &errs)
	validateEntities(problem, &errs, &warnings)
	validateRequirements(problem, &errs, &warnings)
	validateCapacitySanity(problem, &errs, &warnings)

	return Report{OK: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// ValidateStrict runs Validate and, if the report carries any errors,
// returns a *models.ValidationFailed. Warnings never cause a failure.
func ValidateStrict(problem models.Problem) (Report, error) {
	report := Validate(problem)
	if !report.OK {
		return report, &models.ValidationFailed{Errors: report.Errors, Warnings: report.Warnings}
	}
	return report, nil
}

func validateCalendar(cal models.Calendar, errs, warnings *[]string) {
	if len(cal.Days) == 0 {
		*errs = append(*errs, "calendar.days is empty")
		return
	}
	if cal.PeriodsPerDay <= 0 {
		*errs = append(*errs, fmt.Sprintf("calendar.periods_per_day must be > 0 (got %d)", cal.PeriodsPerDay))
	}

	dayIdx := cal.DayIndex()
	for slot := range cal.BlockedSlots {
		if _, ok := dayIdx[slot.Day]; !ok {
			*errs = append(*errs, fmt.Sprintf("blocked slot %s/%d uses a day not in calendar.days", slot.Day, slot.Period))
		}
		if slot.Period < 1 || slot.Period > cal.PeriodsPerDay {
			*errs = append(*errs, fmt.Sprintf("blocked slot %s/%d uses a period outside 1..%d", slot.Day, slot.Period, cal.PeriodsPerDay))
		}
	}

	if cal.PeriodsPerDay > 12 {
		*warnings = append(*warnings, fmt.Sprintf("calendar.periods_per_day=%d is unusually high; confirm these are all teaching periods", cal.PeriodsPerDay))
	}

	if cal.PeriodsPerDay > 0 && len(cal.TeachingSlots()) == 0 {
		*errs = append(*errs, "no teaching slots remain: every slot is blocked")
	}
}

func duplicates(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	dupeSet := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			dupeSet[id] = struct{}{}
		}
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(dupeSet))
	for id := range dupeSet {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func validateUniqueness(problem models.Problem, errs *[]string) {
	ids := func(n int, f func(int) string) []string {
		out := make([]string, n)
		for i := 0; i < n; i++ {
			out[i] = f(i)
		}
		return out
	}

	if d := duplicates(ids(len(problem.Groups), func(i int) string { return problem.Groups[i].ID })); len(d) > 0 {
		*errs = append(*errs, fmt.Sprintf("duplicate group ids: %v", d))
	}
	if d := duplicates(ids(len(problem.Subjects), func(i int) string { return problem.Subjects[i].ID })); len(d) > 0 {
		*errs = append(*errs, fmt.Sprintf("duplicate subject ids: %v", d))
	}
	if d := duplicates(ids(len(problem.Teachers), func(i int) string { return problem.Teachers[i].ID })); len(d) > 0 {
		*errs = append(*errs, fmt.Sprintf("duplicate teacher ids: %v", d))
	}
	if d := duplicates(ids(len(problem.Rooms), func(i int) string { return problem.Rooms[i].ID })); len(d) > 0 {
		*errs = append(*errs, fmt.Sprintf("duplicate room ids: %v", d))
	}
}

func validateEntities(problem models.Problem, errs, warnings *[]string) {
	cal := problem.Calendar
	subjects := problem.SubjectsByID()
	dayIdx := cal.DayIndex()

	for _, g := range problem.Groups {
		if g.ID == "" {
			*errs = append(*errs, "a group has an empty id")
		}
		if g.Size <= 0 {
			*errs = append(*errs, fmt.Sprintf("group %q has size <= 0 (got %d)", g.ID, g.Size))
		}
	}

	for _, sub := range problem.Subjects {
		if sub.ID == "" {
			*errs = append(*errs, "a subject has an empty id")
		}
		if sub.MaxPerDay != nil {
			if *sub.MaxPerDay <= 0 {
				*errs = append(*errs, fmt.Sprintf("subject %q: max_per_day must be > 0 or unset", sub.ID))
			} else if *sub.MaxPerDay > cal.PeriodsPerDay {
				*warnings = append(*warnings, fmt.Sprintf("subject %q: max_per_day=%d > periods_per_day=%d", sub.ID, *sub.MaxPerDay, cal.PeriodsPerDay))
			}
		}
	}

	for _, t := range problem.Teachers {
		if t.ID == "" {
			*errs = append(*errs, "a teacher has an empty id")
		}
		for subID := range t.CanTeach {
			if _, ok := subjects[subID]; !ok {
				*errs = append(*errs, fmt.Sprintf("teacher %q can_teach references unknown subject %q", t.ID, subID))
			}
		}
		for slot := range t.Unavailable {
			if _, ok := dayIdx[slot.Day]; !ok {
				*errs = append(*errs, fmt.Sprintf("teacher %q has unavailable slot %s/%d with a day outside calendar.days", t.ID, slot.Day, slot.Period))
			}
			if slot.Period < 1 || slot.Period > cal.PeriodsPerDay {
				*errs = append(*errs, fmt.Sprintf("teacher %q has unavailable slot %s/%d with a period outside 1..%d", t.ID, slot.Day, slot.Period, cal.PeriodsPerDay))
			}
		}

		validateMinMaxPair(fmt.Sprintf("teacher %q", t.ID), "min_periods_per_day", t.MinPeriodsPerDay, "max_periods_per_day", t.MaxPeriodsPerDay, errs)
		validateMinMaxPair(fmt.Sprintf("teacher %q", t.ID), "min_periods_per_week", t.MinPeriodsPerWeek, "max_periods_per_week", t.MaxPeriodsPerWeek, errs)

		if t.MaxPeriodsPerDay != nil && *t.MaxPeriodsPerDay > cal.PeriodsPerDay {
			*warnings = append(*warnings, fmt.Sprintf("teacher %q: max_periods_per_day=%d > periods_per_day=%d", t.ID, *t.MaxPeriodsPerDay, cal.PeriodsPerDay))
		}
	}

	for _, r := range problem.Rooms {
		if r.ID == "" {
			*errs = append(*errs, "a room has an empty id")
		}
		if r.Capacity <= 0 {
			*errs = append(*errs, fmt.Sprintf("room %q has capacity <= 0 (got %d)", r.ID, r.Capacity))
		}
		for slot := range r.Unavailable {
			if _, ok := dayIdx[slot.Day]; !ok {
				*errs = append(*errs, fmt.Sprintf("room %q has unavailable slot %s/%d with a day outside calendar.days", r.ID, slot.Day, slot.Period))
			}
			if slot.Period < 1 || slot.Period > cal.PeriodsPerDay {
				*errs = append(*errs, fmt.Sprintf("room %q has unavailable slot %s/%d with a period outside 1..%d", r.ID, slot.Day, slot.Period, cal.PeriodsPerDay))
			}
		}
	}
}

func validateMinMaxPair(ctx, minName string, minVal *int, maxName string, maxVal *int, errs *[]string) {
	if minVal != nil && *minVal < 0 {
		*errs = append(*errs, fmt.Sprintf("%s: %s cannot be negative (got %d)", ctx, minName, *minVal))
	}
	if maxVal != nil && *maxVal < 0 {
		*errs = append(*errs, fmt.Sprintf("%s: %s cannot be negative (got %d)", ctx, maxName, *maxVal))
	}
	if minVal != nil && maxVal != nil && *minVal > *maxVal {
		*errs = append(*errs, fmt.Sprintf("%s: %s (%d) > %s (%d)", ctx, minName, *minVal, maxName, *maxVal))
	}
}

func validateRequirements(problem models.Problem, errs, warnings *[]string) {
	cal := problem.Calendar
	groups := problem.GroupsByID()
	subjects := problem.SubjectsByID()
	teachers := problem.TeachersByID()

	type reqKey struct{ group, subject string }
	seen := make(map[reqKey]struct{}, len(problem.Requirements))

	for _, req := range problem.Requirements {
		key := reqKey{req.GroupID, req.SubjectID}
		if _, ok := seen[key]; ok {
			*errs = append(*errs, fmt.Sprintf(
				"duplicate course requirement for group=%q subject=%q; merge them into one (summing periods_per_week)",
				req.GroupID, req.SubjectID))
		}
		seen[key] = struct{}{}
	}

	for _, req := range problem.Requirements {
		ctx := fmt.Sprintf("requirement (group=%q, subject=%q)", req.GroupID, req.SubjectID)

		g, gOK := groups[req.GroupID]
		if !gOK {
			*errs = append(*errs, fmt.Sprintf("requirement references unknown group_id %q", req.GroupID))
			continue
		}
		sub, subOK := subjects[req.SubjectID]
		if !subOK {
			*errs = append(*errs, fmt.Sprintf("requirement references unknown subject_id %q", req.SubjectID))
			continue
		}

		if req.PeriodsPerWeek <= 0 {
			*errs = append(*errs, fmt.Sprintf("%s: periods_per_week must be > 0 (got %d)", ctx, req.PeriodsPerWeek))
		}

		if req.MaxConsecutive != nil {
			if *req.MaxConsecutive <= 0 {
				*errs = append(*errs, fmt.Sprintf("%s: max_consecutive must be > 0 or unset (got %d)", ctx, *req.MaxConsecutive))
			}
			if *req.MaxConsecutive > cal.PeriodsPerDay {
				*warnings = append(*warnings, fmt.Sprintf("%s: max_consecutive=%d > periods_per_day=%d", ctx, *req.MaxConsecutive, cal.PeriodsPerDay))
			}
		}

		validatePeriodSet(ctx+" preferred_periods", req.PreferredPeriods, cal.PeriodsPerDay, errs, warnings, false)
		validatePeriodSet(ctx+" forbidden_periods", req.ForbiddenPeriods, cal.PeriodsPerDay, errs, warnings, true)

		switch req.TeacherPolicy {
		case models.TeacherFixed:
			if req.TeacherID == "" {
				*errs = append(*errs, fmt.Sprintf("%s: teacher_policy=FIXED but teacher_id is empty", ctx))
			} else if t, ok := teachers[req.TeacherID]; !ok {
				*errs = append(*errs, fmt.Sprintf("%s: teacher_id %q does not exist", ctx, req.TeacherID))
			} else if !t.CanTeachSubject(req.SubjectID) {
				*errs = append(*errs, fmt.Sprintf("%s: teacher %q cannot teach %q (not in can_teach)", ctx, t.ID, req.SubjectID))
			}
		case models.TeacherChoose:
			pool := resolvePool(problem, req)
			if len(pool) == 0 {
				*errs = append(*errs, fmt.Sprintf("%s: teacher_policy=CHOOSE resolves to an empty pool", ctx))
			} else {
				for _, tid := range pool {
					t, ok := teachers[tid]
					if !ok {
						*errs = append(*errs, fmt.Sprintf("%s: teacher_pool contains unknown teacher_id %q", ctx, tid))
						continue
					}
					if !t.CanTeachSubject(req.SubjectID) {
						*errs = append(*errs, fmt.Sprintf("%s: teacher_pool includes %q which cannot teach %q", ctx, tid, req.SubjectID))
					}
				}
			}
		default:
			*errs = append(*errs, fmt.Sprintf("%s: unknown teacher_policy %q", ctx, req.TeacherPolicy))
		}

		roomsOK := false
		for _, r := range problem.Rooms {
			if r.Type == sub.RoomTypeRequired && r.Capacity >= g.Size {
				roomsOK = true
				break
			}
		}
		if !roomsOK {
			*errs = append(*errs, fmt.Sprintf("%s: no room matches type=%s capacity>=%d", ctx, sub.RoomTypeRequired, g.Size))
		}

		possible := possibleSlotsForRequirement(problem, req)
		if req.PeriodsPerWeek > len(possible) {
			*errs = append(*errs, fmt.Sprintf(
				"%s: requests %d sessions/week but only %d slots are possible given blocks/forbidden periods/availability",
				ctx, req.PeriodsPerWeek, len(possible)))
		}
	}
}

func resolvePool(problem models.Problem, req models.CourseRequirement) []string {
	if len(req.TeacherPool) > 0 {
		return req.TeacherPool
	}
	pool := make([]string, 0)
	for _, t := range problem.Teachers {
		if t.CanTeachSubject(req.SubjectID) {
			pool = append(pool, t.ID)
		}
	}
	return pool
}

func validatePeriodSet(ctx string, periods models.IntSet, maxPeriod int, errs, warnings *[]string, allowEmpty bool) {
	if periods == nil {
		return
	}
	if len(periods) == 0 && !allowEmpty {
		*warnings = append(*warnings, fmt.Sprintf("%s: empty set (is this intentional?)", ctx))
	}
	var bad []int
	for p := range periods {
		if p < 1 || p > maxPeriod {
			bad = append(bad, p)
		}
	}
	if len(bad) > 0 {
		sort.Ints(bad)
		*errs = append(*errs, fmt.Sprintf("%s: contains periods outside 1..%d: %v", ctx, maxPeriod, bad))
	}
}

// possibleSlotsForRequirement narrows the calendar's teaching slots by the
// requirement's hard forbidden periods (when configured) and by the
// availability of whichever teacher(s) could serve the requirement.
func possibleSlotsForRequirement(problem models.Problem, req models.CourseRequirement) []models.Slot {
	slots := problem.Calendar.TeachingSlots()

	if problem.Config.ForbiddenPeriodsHard && len(req.ForbiddenPeriods) > 0 {
		filtered := slots[:0:0]
		for _, s := range slots {
			if !req.ForbiddenPeriods.Contains(s.Period) {
				filtered = append(filtered, s)
			}
		}
		slots = filtered
	}

	teachers := problem.TeachersByID()

	switch req.TeacherPolicy {
	case models.TeacherFixed:
		if req.TeacherID == "" {
			return slots
		}
		t, ok := teachers[req.TeacherID]
		if !ok {
			return slots
		}
		out := slots[:0:0]
		for _, s := range slots {
			if t.IsAvailable(s) {
				out = append(out, s)
			}
		}
		return out
	case models.TeacherChoose:
		pool := resolvePool(problem, req)
		out := make([]models.Slot, 0, len(slots))
		for _, s := range slots {
			for _, tid := range pool {
				if t, ok := teachers[tid]; ok && t.IsAvailable(s) {
					out = append(out, s)
					break
				}
			}
		}
		return out
	default:
		return slots
	}
}

func validateCapacitySanity(problem models.Problem, errs, warnings *[]string) {
	teachingSlots := problem.Calendar.TeachingSlots()
	slotsPerWeek := len(teachingSlots)

	loadByGroup := make(map[string]int)
	for _, req := range problem.Requirements {
		loadByGroup[req.GroupID] += req.PeriodsPerWeek
	}

	groupIDs := make([]string, 0, len(loadByGroup))
	for id := range loadByGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	for _, gID := range groupIDs {
		load := loadByGroup[gID]
		switch {
		case load > slotsPerWeek:
			*errs = append(*errs, fmt.Sprintf("group %q requires %d sessions/week but only %d teaching slots exist", gID, load, slotsPerWeek))
		case load == slotsPerWeek:
			*warnings = append(*warnings, fmt.Sprintf("group %q fills 100%% of teaching slots (%d/%d); this tends to make the problem harder", gID, load, slotsPerWeek))
		}
	}

	teachers := problem.TeachersByID()
	fixedLoad := make(map[string]int)
	for _, req := range problem.Requirements {
		if req.TeacherPolicy == models.TeacherFixed && req.TeacherID != "" {
			fixedLoad[req.TeacherID] += req.PeriodsPerWeek
		}
	}

	teacherIDs := make([]string, 0, len(fixedLoad))
	for id := range fixedLoad {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	for _, tID := range teacherIDs {
		load := fixedLoad[tID]
		t, ok := teachers[tID]
		if !ok {
			continue
		}
		available := 0
		for _, s := range teachingSlots {
			if t.IsAvailable(s) {
				available++
			}
		}
		if load > available {
			*errs = append(*errs, fmt.Sprintf("teacher %q has fixed load %d but only %d slots available", tID, load, available))
		}
		if t.MaxPeriodsPerWeek != nil && load > *t.MaxPeriodsPerWeek {
			*errs = append(*errs, fmt.Sprintf("teacher %q: fixed load %d > max_periods_per_week %d", tID, load, *t.MaxPeriodsPerWeek))
		}
		if t.MinPeriodsPerWeek != nil && load < *t.MinPeriodsPerWeek {
			*warnings = append(*warnings, fmt.Sprintf("teacher %q: fixed load %d < min_periods_per_week %d (if that minimum is hard, this will be infeasible)", tID, load, *t.MinPeriodsPerWeek))
		}
	}
}
