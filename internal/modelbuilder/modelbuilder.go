// Package modelbuilder translates a compiler.Compiled instance plus the
// originating models.Problem into a solver.Model: the hard constraints and
// soft objective terms a weekly timetable must satisfy.
package modelbuilder

import (
	"fmt"
	"sort"

	"timetable-engine/internal/compiler"
	"timetable-engine/internal/models"
	"timetable-engine/internal/solver"
)

// Built is the compiled solver.Model plus every intermediate variable group
// the reconstructor needs to read back out of the Solution.
type Built struct {
	Model *solver.Model

	// x[eventID][slotIndex] = 1 iff the event is placed at that slot.
	X map[string]map[int]solver.VarID
	// Y[eventID][roomID] = 1 iff the event is placed in that room.
	Y map[string]map[string]solver.VarID
	// A[key][teacherID] = 1 iff that teacher is chosen for the TeacherKey.
	A map[models.TeacherKey]map[string]solver.VarID

	GapVars      []solver.VarID
	LateVars     []solver.VarID
	ExcessVars   []solver.VarID
	PrefVars     []solver.VarID
	ForbiddenVars []solver.VarID

	Compiled compiler.Compiled
}

// Build lowers the compiled problem onto an abstract solver.Model, mirroring
// the constraint and objective structure of a CP-SAT formulation: placement,
// room and teacher assignment booleans; group/teacher/room conflict limits;
// per-day/week teacher caps; max-consecutive and same-day subject caps; and
// the five weighted soft objective terms.
func Build(problem models.Problem, compiled compiler.Compiled) (*Built, error) {
	m := solver.NewModel()
	teachers := problem.TeachersByID()
	rooms := problem.RoomsByID()
	weights := problem.Config.Weights
	cal := problem.Calendar

	b := &Built{
		Model:    m,
		X:        make(map[string]map[int]solver.VarID),
		Y:        make(map[string]map[string]solver.VarID),
		A:        make(map[models.TeacherKey]map[string]solver.VarID),
		Compiled: compiled,
	}

	// --- x[e,si]: event e placed at slot si; exactly one per event.
	for _, e := range compiled.Events {
		b.X[e.ID] = make(map[int]solver.VarID, len(compiled.AllowedSlots[e.ID]))
		terms := make(map[solver.VarID]int, len(compiled.AllowedSlots[e.ID]))
		for _, si := range compiled.AllowedSlots[e.ID] {
			v := m.NewBool(fmt.Sprintf("x[%s,%d]", e.ID, si))
			b.X[e.ID][si] = v
			terms[v] = 1
		}
		m.AddLinearEq(terms, 1)
	}

	// --- group conflict: at most one event per group per slot.
	eventsByGroup := make(map[string][]models.Event)
	for _, e := range compiled.Events {
		eventsByGroup[e.GroupID] = append(eventsByGroup[e.GroupID], e)
	}
	for _, evs := range eventsByGroup {
		for si := range compiled.Slots {
			terms := make(map[solver.VarID]int)
			for _, e := range evs {
				if v, ok := b.X[e.ID][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) > 0 {
				m.AddLinearLE(terms, 1)
			}
		}
	}

	// --- a[k,tid]: teacher tid chosen for TeacherKey k; exactly one per key,
	// forced to the fixed teacher when the requirement demands it.
	keys := sortedKeys(compiled.KeyPools)
	for _, k := range keys {
		pool := compiled.KeyPools[k]
		b.A[k] = make(map[string]solver.VarID, len(pool))
		terms := make(map[solver.VarID]int, len(pool))
		for _, tid := range pool {
			v := m.NewBool(fmt.Sprintf("a[%s,%s,%s]", k.GroupID, k.SubjectID, tid))
			b.A[k][tid] = v
			terms[v] = 1
		}
		m.AddLinearEq(terms, 1)

		req := compiled.ReqByKey[k]
		if req.TeacherPolicy == models.TeacherFixed {
			for _, tid := range pool {
				want := 0
				if tid == req.TeacherID {
					want = 1
				}
				m.AddLinearEq(map[solver.VarID]int{b.A[k][tid]: 1}, want)
			}
		}
	}

	// --- occ[k,si]: the (group,subject) key occupies slot si.
	eventsOfKey := make(map[models.TeacherKey][]models.Event)
	for _, e := range compiled.Events {
		eventsOfKey[e.TeacherKey] = append(eventsOfKey[e.TeacherKey], e)
	}
	occ := make(map[models.TeacherKey]map[int]solver.VarID)
	for _, k := range keys {
		occ[k] = make(map[int]solver.VarID, len(compiled.Slots))
		evs := eventsOfKey[k]
		for si := range compiled.Slots {
			terms := make(map[solver.VarID]int)
			for _, e := range evs {
				if v, ok := b.X[e.ID][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) == 0 {
				continue // absent key means occ==0; omit rather than model a constant
			}
			v := m.NewBool(fmt.Sprintf("occ[%s,%s,%d]", k.GroupID, k.SubjectID, si))
			m.AddLinearLE(terms, 1)
			eqTerms := make(map[solver.VarID]int, len(terms)+1)
			for tv, c := range terms {
				eqTerms[tv] = c
			}
			eqTerms[v] = -1
			m.AddLinearEq(eqTerms, 0)
			occ[k][si] = v
		}
	}

	// --- teach[k,tid,si] = a[k,tid] AND occ[k,si], zeroed where the teacher
	// is unavailable.
	teach := make(map[models.TeacherKey]map[string]map[int]solver.VarID)
	for _, k := range keys {
		pool := compiled.KeyPools[k]
		teach[k] = make(map[string]map[int]solver.VarID, len(pool))
		for _, tid := range pool {
			t := teachers[tid]
			teach[k][tid] = make(map[int]solver.VarID, len(compiled.Slots))
			for si, slot := range compiled.Slots {
				occVar, hasOcc := occ[k][si]
				if !hasOcc {
					continue
				}
				v := m.NewBool(fmt.Sprintf("teach[%s,%s,%s,%d]", k.GroupID, k.SubjectID, tid, si))
				teach[k][tid][si] = v

				aVar := b.A[k][tid]
				m.AddLinearLE(map[solver.VarID]int{v: 1, aVar: -1}, 0)
				m.AddLinearLE(map[solver.VarID]int{v: 1, occVar: -1}, 0)
				m.AddLinearGE(map[solver.VarID]int{v: 1, aVar: -1, occVar: -1}, -1)

				if !t.IsAvailable(slot) {
					m.AddLinearEq(map[solver.VarID]int{v: 1}, 0)
				}
			}
		}
	}

	// --- teacher conflict: at most one class per teacher per slot.
	busy := make(map[string]map[int]solver.VarID)
	for _, t := range problem.Teachers {
		busy[t.ID] = make(map[int]solver.VarID, len(compiled.Slots))
		for si := range compiled.Slots {
			terms := make(map[solver.VarID]int)
			for _, k := range keys {
				if v, ok := teach[k][t.ID][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) == 0 {
				continue
			}
			v := m.NewBool(fmt.Sprintf("busy[%s,%d]", t.ID, si))
			eqTerms := make(map[solver.VarID]int, len(terms)+1)
			for tv, c := range terms {
				eqTerms[tv] = c
			}
			eqTerms[v] = -1
			m.AddLinearEq(eqTerms, 0)
			m.AddLinearLE(terms, 1)
			busy[t.ID][si] = v
		}
	}

	slotsByDay := make(map[string][]int)
	for si, s := range compiled.Slots {
		slotsByDay[s.Day] = append(slotsByDay[s.Day], si)
	}

	// --- teacher max_periods_per_day/week (hard).
	for _, t := range problem.Teachers {
		if t.MaxPeriodsPerDay != nil {
			for _, d := range cal.Days {
				terms := make(map[solver.VarID]int)
				for _, si := range slotsByDay[d] {
					if v, ok := busy[t.ID][si]; ok {
						terms[v] = 1
					}
				}
				if len(terms) > 0 {
					m.AddLinearLE(terms, *t.MaxPeriodsPerDay)
				}
			}
		}
		if t.MaxPeriodsPerWeek != nil {
			terms := make(map[solver.VarID]int)
			for si := range compiled.Slots {
				if v, ok := busy[t.ID][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) > 0 {
				m.AddLinearLE(terms, *t.MaxPeriodsPerWeek)
			}
		}
	}

	// --- room assignment y[e,rid] and w[e,si,rid] = x AND y.
	roomSlotSum := make(map[string]map[int][]solver.VarID)
	for _, e := range compiled.Events {
		rids := compiled.AllowedRooms[e.ID]
		b.Y[e.ID] = make(map[string]solver.VarID, len(rids))
		terms := make(map[solver.VarID]int, len(rids))
		for _, rid := range rids {
			v := m.NewBool(fmt.Sprintf("y[%s,%s]", e.ID, rid))
			b.Y[e.ID][rid] = v
			terms[v] = 1
		}
		m.AddLinearEq(terms, 1)
	}

	for _, e := range compiled.Events {
		for _, si := range compiled.AllowedSlots[e.ID] {
			slot := compiled.Slots[si]
			xVar := b.X[e.ID][si]
			for _, rid := range compiled.AllowedRooms[e.ID] {
				room := rooms[rid]
				yVar := b.Y[e.ID][rid]
				if !room.IsAvailable(slot) {
					m.AddLinearLE(map[solver.VarID]int{xVar: 1, yVar: 1}, 1)
					continue
				}

				w := m.NewBool(fmt.Sprintf("w[%s,%d,%s]", e.ID, si, rid))
				m.AddLinearLE(map[solver.VarID]int{w: 1, xVar: -1}, 0)
				m.AddLinearLE(map[solver.VarID]int{w: 1, yVar: -1}, 0)
				m.AddLinearGE(map[solver.VarID]int{w: 1, xVar: -1, yVar: -1}, -1)

				if roomSlotSum[rid] == nil {
					roomSlotSum[rid] = make(map[int][]solver.VarID)
				}
				roomSlotSum[rid][si] = append(roomSlotSum[rid][si], w)
			}
		}
	}

	for _, r := range problem.Rooms {
		for si := range compiled.Slots {
			terms := roomSlotSum[r.ID][si]
			if len(terms) == 0 {
				continue
			}
			coeffs := make(map[solver.VarID]int, len(terms))
			for _, v := range terms {
				coeffs[v] = 1
			}
			m.AddLinearLE(coeffs, 1)
		}
	}

	// --- max_consecutive per (group,subject), a sliding-window cap on occ.
	for _, k := range keys {
		req := compiled.ReqByKey[k]
		if req.MaxConsecutive == nil || *req.MaxConsecutive < 1 {
			continue
		}
		maxConsec := *req.MaxConsecutive
		for _, d := range cal.Days {
			dayIndices := sortedByPeriod(slotsByDay[d], compiled.Slots)
			for startP := 1; startP <= cal.PeriodsPerDay-maxConsec; startP++ {
				var window []int
				for _, si := range dayIndices {
					p := compiled.Slots[si].Period
					if p >= startP && p <= startP+maxConsec {
						window = append(window, si)
					}
				}
				if len(window) == 0 {
					continue
				}
				terms := make(map[solver.VarID]int)
				for _, si := range window {
					if v, ok := occ[k][si]; ok {
						terms[v] = 1
					}
				}
				if len(terms) > 0 {
					m.AddLinearLE(terms, maxConsec)
				}
			}
		}
	}

	// --- subject max_per_day (hard).
	subjects := problem.SubjectsByID()
	for _, k := range keys {
		sub := subjects[k.SubjectID]
		if sub.MaxPerDay == nil {
			continue
		}
		for _, d := range cal.Days {
			terms := make(map[solver.VarID]int)
			for _, si := range slotsByDay[d] {
				if v, ok := occ[k][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) > 0 {
				m.AddLinearLE(terms, *sub.MaxPerDay)
			}
		}
	}

	// --- forbidden_periods soft (only when config doesn't make them hard).
	if !problem.Config.ForbiddenPeriodsHard {
		for _, k := range keys {
			req := compiled.ReqByKey[k]
			if len(req.ForbiddenPeriods) == 0 {
				continue
			}
			for si, slot := range compiled.Slots {
				if !req.ForbiddenPeriods.Contains(slot.Period) {
					continue
				}
				if v, ok := occ[k][si]; ok {
					b.ForbiddenVars = append(b.ForbiddenVars, v)
				}
			}
		}
	}

	objective := make(map[solver.VarID]int)

	// 1) teacher gaps: busy(prev) + busy(next) - busy(cur) - 1 <= gap.
	for _, t := range problem.Teachers {
		for _, d := range cal.Days {
			dayIndices := sortedByPeriod(slotsByDay[d], compiled.Slots)
			for p := 2; p < cal.PeriodsPerDay; p++ {
				siPrev, okPrev := slotAtPeriod(dayIndices, compiled.Slots, p-1)
				siCur, okCur := slotAtPeriod(dayIndices, compiled.Slots, p)
				siNext, okNext := slotAtPeriod(dayIndices, compiled.Slots, p+1)
				if !okPrev || !okCur || !okNext {
					continue
				}
				bPrev, hasPrev := busy[t.ID][siPrev]
				bCur, hasCur := busy[t.ID][siCur]
				bNext, hasNext := busy[t.ID][siNext]
				if !hasPrev || !hasCur || !hasNext {
					continue
				}
				gap := m.NewBool(fmt.Sprintf("gap[%s,%s,%d]", t.ID, d, p))
				m.AddLinearGE(map[solver.VarID]int{gap: 1, bPrev: -1, bNext: -1, bCur: 1}, -1)
				b.GapVars = append(b.GapVars, gap)
			}
		}
	}
	if len(b.GapVars) > 0 && weights.TeacherGaps != 0 {
		for _, v := range b.GapVars {
			objective[v] += weights.TeacherGaps
		}
	}

	// 2) teacher scheduled in the last period of the day.
	for _, t := range problem.Teachers {
		for _, d := range cal.Days {
			siLast, ok := slotAtPeriod(slotsByDay[d], compiled.Slots, cal.PeriodsPerDay)
			if !ok {
				continue
			}
			if v, ok := busy[t.ID][siLast]; ok {
				b.LateVars = append(b.LateVars, v)
			}
		}
	}
	if len(b.LateVars) > 0 && weights.TeacherLate != 0 {
		for _, v := range b.LateVars {
			objective[v] += weights.TeacherLate
		}
	}

	// 3) same-day subject excess: max(0, count-1) per (key, day).
	for _, k := range keys {
		for _, d := range cal.Days {
			silist := slotsByDay[d]
			if len(silist) == 0 {
				continue
			}
			terms := make(map[solver.VarID]int)
			for _, si := range silist {
				if v, ok := occ[k][si]; ok {
					terms[v] = 1
				}
			}
			if len(terms) == 0 {
				continue
			}
			ex := m.NewInt(0, cal.PeriodsPerDay, fmt.Sprintf("excess[%s,%s,%s]", k.GroupID, k.SubjectID, d))
			geTerms := make(map[solver.VarID]int, len(terms)+1)
			for tv, c := range terms {
				geTerms[tv] = c
			}
			geTerms[ex] = -1
			m.AddLinearLE(geTerms, 1) // cnt - ex <= 1  <=>  ex >= cnt - 1
			b.ExcessVars = append(b.ExcessVars, ex)
		}
	}
	if len(b.ExcessVars) > 0 && weights.SubjectSameDayExcess != 0 {
		for _, v := range b.ExcessVars {
			objective[v] += weights.SubjectSameDayExcess
		}
	}

	// 4) preferred_periods penalty: one unit per occ outside the preferred set.
	for _, k := range keys {
		req := compiled.ReqByKey[k]
		if len(req.PreferredPeriods) == 0 {
			continue
		}
		for si, slot := range compiled.Slots {
			if req.PreferredPeriods.Contains(slot.Period) {
				continue
			}
			if v, ok := occ[k][si]; ok {
				b.PrefVars = append(b.PrefVars, v)
			}
		}
	}
	if len(b.PrefVars) > 0 && weights.PreferredPeriodPenalty != 0 {
		for _, v := range b.PrefVars {
			objective[v] += weights.PreferredPeriodPenalty
		}
	}

	// 5) forbidden_periods soft penalty.
	if len(b.ForbiddenVars) > 0 && weights.ForbiddenPeriodPenalty != 0 {
		for _, v := range b.ForbiddenVars {
			objective[v] += weights.ForbiddenPeriodPenalty
		}
	}

	if len(objective) > 0 {
		m.Minimize(objective)
	}

	return b, nil
}

func sortedKeys(pools map[models.TeacherKey][]string) []models.TeacherKey {
	keys := make([]models.TeacherKey, 0, len(pools))
	for k := range pools {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GroupID != keys[j].GroupID {
			return keys[i].GroupID < keys[j].GroupID
		}
		return keys[i].SubjectID < keys[j].SubjectID
	})
	return keys
}

func sortedByPeriod(indices []int, slots []models.Slot) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	sort.Slice(out, func(i, j int) bool { return slots[out[i]].Period < slots[out[j]].Period })
	return out
}

func slotAtPeriod(indices []int, slots []models.Slot, period int) (int, bool) {
	for _, si := range indices {
		if slots[si].Period == period {
			return si, true
		}
	}
	return 0, false
}
