package models

// Group is a class/roster of students that shares a timetable.
type Group struct {
	ID   string
	Size int
}

// Subject is a curricular subject taught to groups.
type Subject struct {
	ID                string
	RoomTypeRequired  RoomType
	MaxPerDay         *int // nil means unconstrained
}

// Teacher can teach a set of subjects and has slot-level availability and
// optional per-day/per-week period caps.
type Teacher struct {
	ID                string
	CanTeach          StringSet
	Unavailable       SlotSet
	MinPeriodsPerDay  *int
	MaxPeriodsPerDay  *int
	MinPeriodsPerWeek *int
	MaxPeriodsPerWeek *int
}

// IsAvailable reports whether the teacher can be scheduled at slot.
func (t Teacher) IsAvailable(slot Slot) bool {
	return !t.Unavailable.Contains(slot)
}

// CanTeachSubject reports whether subjectID is in the teacher's can-teach set.
func (t Teacher) CanTeachSubject(subjectID string) bool {
	return t.CanTeach.Contains(subjectID)
}

// Room is a physical space of a given type and capacity.
type Room struct {
	ID          string
	Type        RoomType
	Capacity    int
	Unavailable SlotSet
}

// IsAvailable reports whether the room can host a lesson at slot.
func (r Room) IsAvailable(slot Slot) bool {
	return !r.Unavailable.Contains(slot)
}

// TeacherKey identifies the (group, subject) pair that must share exactly
// one teacher.
type TeacherKey struct {
	GroupID   string
	SubjectID string
}

// CourseRequirement states that GroupID must receive PeriodsPerWeek unit
// lessons of SubjectID per week.
type CourseRequirement struct {
	GroupID         string
	SubjectID       string
	PeriodsPerWeek  int
	MaxConsecutive  *int // defaults to 2 when nil, see deserializer
	TeacherPolicy   TeacherPolicy
	TeacherID       string   // required iff TeacherPolicy == TeacherFixed
	TeacherPool     []string // optional when TeacherPolicy == TeacherChoose
	PreferredPeriods IntSet  // nil/empty means no preference
	ForbiddenPeriods IntSet  // nil/empty means nothing forbidden
	AllowDouble     bool     // reserved: parsed but never consulted, see spec Open Questions
}

// Key returns the TeacherKey this requirement belongs to.
func (r CourseRequirement) Key() TeacherKey {
	return TeacherKey{GroupID: r.GroupID, SubjectID: r.SubjectID}
}

// ObjectiveWeights are the non-negative integer weights of each soft
// objective term.
type ObjectiveWeights struct {
	TeacherGaps             int
	TeacherLate             int
	SubjectSameDayExcess    int
	PreferredPeriodPenalty  int
	ForbiddenPeriodPenalty  int
}

// DefaultObjectiveWeights returns the defaults named in the spec.
func DefaultObjectiveWeights() ObjectiveWeights {
	return ObjectiveWeights{
		TeacherGaps:            1000,
		TeacherLate:            100,
		SubjectSameDayExcess:   10,
		PreferredPeriodPenalty: 1,
		ForbiddenPeriodPenalty: 50,
	}
}

// SolveConfig controls solver invocation and objective weighting.
type SolveConfig struct {
	MaxSeconds           int
	RandomSeed           *int64
	Weights              ObjectiveWeights
	ForbiddenPeriodsHard bool
}

// DefaultSolveConfig returns the defaults named in the spec (§4.1).
func DefaultSolveConfig() SolveConfig {
	return SolveConfig{
		MaxSeconds:           30,
		Weights:              DefaultObjectiveWeights(),
		ForbiddenPeriodsHard: true,
	}
}

// Problem is the fully-typed, immutable timetabling problem. Once
// constructed it is only read; no component mutates it.
type Problem struct {
	Calendar     Calendar
	Groups       []Group
	Subjects     []Subject
	Teachers     []Teacher
	Rooms        []Room
	Requirements []CourseRequirement
	Config       SolveConfig
}

// GroupsByID indexes Groups by id.
func (p Problem) GroupsByID() map[string]Group {
	idx := make(map[string]Group, len(p.Groups))
	for _, g := range p.Groups {
		idx[g.ID] = g
	}
	return idx
}

// SubjectsByID indexes Subjects by id.
func (p Problem) SubjectsByID() map[string]Subject {
	idx := make(map[string]Subject, len(p.Subjects))
	for _, s := range p.Subjects {
		idx[s.ID] = s
	}
	return idx
}

// TeachersByID indexes Teachers by id.
func (p Problem) TeachersByID() map[string]Teacher {
	idx := make(map[string]Teacher, len(p.Teachers))
	for _, t := range p.Teachers {
		idx[t.ID] = t
	}
	return idx
}

// RoomsByID indexes Rooms by id.
func (p Problem) RoomsByID() map[string]Room {
	idx := make(map[string]Room, len(p.Rooms))
	for _, r := range p.Rooms {
		idx[r.ID] = r
	}
	return idx
}
