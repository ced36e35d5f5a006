package models

import "errors"

// Domain errors grouped by the validator check that raises them. These are
// used as sentinels for tests and callers that want to distinguish error
// classes with errors.Is; the human-readable text that actually reaches a
// Report's Errors/Warnings slices is built separately by the validator,
// since those messages must name the offending entity.
var (
	// Calendar errors
	ErrCalendarDaysEmpty      = errors.New("calendar has no days")
	ErrCalendarNoTeachingSlot = errors.New("calendar has no teaching slots")

	// Uniqueness errors
	ErrDuplicateGroupID      = errors.New("duplicate group id")
	ErrDuplicateSubjectID    = errors.New("duplicate subject id")
	ErrDuplicateTeacherID    = errors.New("duplicate teacher id")
	ErrDuplicateRoomID       = errors.New("duplicate room id")
	ErrDuplicateRequirement  = errors.New("duplicate course requirement")

	// Entity sanity errors
	ErrEmptyID              = errors.New("entity has an empty id")
	ErrInvalidGroupSize     = errors.New("group size must be > 0")
	ErrInvalidMaxPerDay     = errors.New("subject max_per_day must be > 0 when set")
	ErrUnknownCanTeach      = errors.New("teacher can_teach references unknown subject")
	ErrInvalidSlotRange     = errors.New("slot is outside the calendar's day/period range")
	ErrMinGreaterThanMax    = errors.New("min bound exceeds max bound")
	ErrInvalidRoomCapacity  = errors.New("room capacity must be > 0")

	// Requirement errors
	ErrUnknownGroupRef      = errors.New("requirement references unknown group")
	ErrUnknownSubjectRef    = errors.New("requirement references unknown subject")
	ErrInvalidPeriodsWeek   = errors.New("periods_per_week must be > 0")
	ErrInvalidMaxConsecutive = errors.New("max_consecutive must be > 0 when set")
	ErrPeriodOutOfRange     = errors.New("period is outside 1..periods_per_day")
	ErrMissingFixedTeacher  = errors.New("teacher_policy=FIXED requires a known teacher_id")
	ErrTeacherCannotTeach   = errors.New("teacher cannot teach the requirement's subject")
	ErrEmptyTeacherPool     = errors.New("teacher_policy=CHOOSE resolved to an empty pool")
	ErrUnknownTeacherPolicy = errors.New("unknown teacher_policy")
	ErrNoCompatibleRoom     = errors.New("no room matches the requirement's type/capacity")
	ErrNotEnoughSlots       = errors.New("not enough possible slots for periods_per_week")

	// Capacity sanity errors
	ErrGroupOverloaded   = errors.New("group requests more periods than there are teaching slots")
	ErrTeacherOverloaded = errors.New("fixed teacher load exceeds availability or max_periods_per_week")

	// Compile errors
	ErrEventNoAllowedSlots = errors.New("event has no allowed slots after pruning")
	ErrEventNoAllowedRooms = errors.New("event has no allowed rooms after pruning")

	// Solve errors
	ErrNoSolution = errors.New("solver returned neither OPTIMAL nor FEASIBLE")
)
