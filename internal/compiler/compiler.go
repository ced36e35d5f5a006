// Package compiler expands a validated models.Problem into unit events with
// pruned slot/room/teacher-pool domains, ready for internal/modelbuilder.
package compiler

import (
	"fmt"

	"timetable-engine/internal/models"
)

// Compiled is the intermediate representation the model builder consumes.
// It names, for every synthetic Event, the slot indices and room ids it may
// legally occupy, and for every TeacherKey the pool of teachers eligible to
// teach it.
type Compiled struct {
	Events       []models.Event
	EventReqKey  map[string]models.TeacherKey
	ReqByKey     map[models.TeacherKey]models.CourseRequirement
	Slots        []models.Slot
	SlotIndex    map[models.Slot]int
	KeyPools     map[models.TeacherKey][]string
	AllowedSlots map[string][]int
	AllowedRooms map[string][]string
}

// Compile expands problem.Requirements into unit events and computes their
// allowed slot/room domains. It returns a *models.CompileError naming the
// offending event if any event's domain is empty after pruning, or if a
// TeacherKey's pool resolves to nothing.
func Compile(problem models.Problem) (Compiled, error) {
	cal := problem.Calendar
	slots := cal.TeachingSlots()
	slotIndex := make(map[models.Slot]int, len(slots))
	for i, s := range slots {
		slotIndex[s] = i
	}

	groups := problem.GroupsByID()
	subjects := problem.SubjectsByID()
	teachers := problem.TeachersByID()

	c := Compiled{
		EventReqKey:  make(map[string]models.TeacherKey),
		ReqByKey:     make(map[models.TeacherKey]models.CourseRequirement),
		Slots:        slots,
		SlotIndex:    slotIndex,
		KeyPools:     make(map[models.TeacherKey][]string),
		AllowedSlots: make(map[string][]int),
		AllowedRooms: make(map[string][]string),
	}

	roomsFor := func(groupID, subjectID string) []string {
		g := groups[groupID]
		sub := subjects[subjectID]
		var ids []string
		for _, r := range problem.Rooms {
			if r.Type == sub.RoomTypeRequired && r.Capacity >= g.Size {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}

	poolFor := func(req models.CourseRequirement) []string {
		if req.TeacherPolicy == models.TeacherFixed {
			if req.TeacherID == "" {
				return nil
			}
			return []string{req.TeacherID}
		}
		if len(req.TeacherPool) > 0 {
			return req.TeacherPool
		}
		var pool []string
		for _, t := range problem.Teachers {
			if t.CanTeachSubject(req.SubjectID) {
				pool = append(pool, t.ID)
			}
		}
		return pool
	}

	possibleSlotsFor := func(req models.CourseRequirement, pool []string) []models.Slot {
		possible := slots

		if problem.Config.ForbiddenPeriodsHard && len(req.ForbiddenPeriods) > 0 {
			narrowed := make([]models.Slot, 0, len(possible))
			for _, s := range possible {
				if !req.ForbiddenPeriods.Contains(s.Period) {
					narrowed = append(narrowed, s)
				}
			}
			possible = narrowed
		}

		if req.TeacherPolicy == models.TeacherFixed && req.TeacherID != "" {
			t := teachers[req.TeacherID]
			narrowed := make([]models.Slot, 0, len(possible))
			for _, s := range possible {
				if t.IsAvailable(s) {
					narrowed = append(narrowed, s)
				}
			}
			return narrowed
		}

		if req.TeacherPolicy == models.TeacherChoose {
			var poolTeachers []models.Teacher
			for _, tid := range pool {
				if t, ok := teachers[tid]; ok {
					poolTeachers = append(poolTeachers, t)
				}
			}
			if len(poolTeachers) > 0 {
				narrowed := make([]models.Slot, 0, len(possible))
				for _, s := range possible {
					for _, t := range poolTeachers {
						if t.IsAvailable(s) {
							narrowed = append(narrowed, s)
							break
						}
					}
				}
				return narrowed
			}
			return possible
		}

		return possible
	}

	for _, req := range problem.Requirements {
		key := req.Key()
		c.ReqByKey[key] = req

		pool := poolFor(req)
		c.KeyPools[key] = pool
		if len(pool) == 0 {
			return c, &models.CompileError{
				EventID: fmt.Sprintf("%s-%s", req.GroupID, req.SubjectID),
				Err:     fmt.Errorf("teacher pool is empty for group=%s subject=%s", req.GroupID, req.SubjectID),
			}
		}

		sub := subjects[req.SubjectID]

		for i := 1; i <= req.PeriodsPerWeek; i++ {
			eid := fmt.Sprintf("%s-%s-%02d", req.GroupID, req.SubjectID, i)
			e := models.Event{
				ID:               eid,
				GroupID:          req.GroupID,
				SubjectID:        req.SubjectID,
				RoomTypeRequired: sub.RoomTypeRequired,
				TeacherKey:       key,
			}
			c.Events = append(c.Events, e)
			c.EventReqKey[eid] = key

			rids := roomsFor(req.GroupID, req.SubjectID)
			if len(rids) == 0 {
				return c, &models.CompileError{EventID: eid, Err: models.ErrEventNoAllowedRooms}
			}
			c.AllowedRooms[eid] = rids

			poss := possibleSlotsFor(req, pool)
			if len(poss) == 0 {
				return c, &models.CompileError{EventID: eid, Err: models.ErrEventNoAllowedSlots}
			}
			indices := make([]int, len(poss))
			for j, s := range poss {
				indices[j] = slotIndex[s]
			}
			c.AllowedSlots[eid] = indices
		}
	}

	return c, nil
}
