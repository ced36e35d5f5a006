package solver

import (
	"context"
	"time"
)

// defaultNodeLimit bounds the number of search nodes expanded, as a
// last-resort safeguard against a
// pathological instance; it is far above what any reasonably-sized
// timetabling problem should need.
const defaultNodeLimit = 2_000_000

// floorDiv returns the largest integer <= a/b, for b != 0.
func floorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilDiv returns the smallest integer >= a/b, for b != 0.
func ceilDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && (r < 0) == (b < 0) {
		q++
	}
	return q
}

// sumBounds returns the minimum and maximum value sum(terms) can take given
// each variable's current [lo,hi] domain.
func sumBounds(lo, hi []int, terms []term) (min, max int) {
	for _, t := range terms {
		if t.c >= 0 {
			min += t.c * lo[t.v]
			max += t.c * hi[t.v]
		} else {
			min += t.c * hi[t.v]
			max += t.c * lo[t.v]
		}
	}
	return
}

// tightenLE narrows domains to satisfy sum(terms) <= rhs. It returns
// (feasible, changed).
func tightenLE(lo, hi []int, terms []term, rhs int) (bool, bool) {
	minSum, _ := sumBounds(lo, hi, terms)
	if minSum > rhs {
		return false, false
	}
	changed := false
	for _, t := range terms {
		v, c := t.v, t.c
		if lo[v] == hi[v] {
			continue
		}
		var cmin int
		if c >= 0 {
			cmin = c * lo[v]
		} else {
			cmin = c * hi[v]
		}
		omin := minSum - cmin
		limit := rhs - omin
		if c > 0 {
			newHi := floorDiv(limit, c)
			if newHi < hi[v] {
				if newHi < lo[v] {
					return false, changed
				}
				hi[v] = newHi
				changed = true
			}
		} else if c < 0 {
			newLo := ceilDiv(limit, c)
			if newLo > lo[v] {
				if newLo > hi[v] {
					return false, changed
				}
				lo[v] = newLo
				changed = true
			}
		}
	}
	return true, changed
}

// tightenGE narrows domains to satisfy sum(terms) >= rhs. It returns
// (feasible, changed).
func tightenGE(lo, hi []int, terms []term, rhs int) (bool, bool) {
	_, maxSum := sumBounds(lo, hi, terms)
	if maxSum < rhs {
		return false, false
	}
	changed := false
	for _, t := range terms {
		v, c := t.v, t.c
		if lo[v] == hi[v] {
			continue
		}
		var cmax int
		if c >= 0 {
			cmax = c * hi[v]
		} else {
			cmax = c * lo[v]
		}
		omax := maxSum - cmax
		limit := rhs - omax
		if c > 0 {
			newLo := ceilDiv(limit, c)
			if newLo > lo[v] {
				if newLo > hi[v] {
					return false, changed
				}
				lo[v] = newLo
				changed = true
			}
		} else if c < 0 {
			newHi := floorDiv(limit, c)
			if newHi < hi[v] {
				if newHi < lo[v] {
					return false, changed
				}
				hi[v] = newHi
				changed = true
			}
		}
	}
	return true, changed
}

func propagateConstraint(lo, hi []int, c constraint) (ok bool, changed bool) {
	switch c.op {
	case OpLE:
		return tightenLE(lo, hi, c.terms, c.rhs)
	case OpGE:
		return tightenGE(lo, hi, c.terms, c.rhs)
	default: // OpEQ
		ok, ch1 := tightenLE(lo, hi, c.terms, c.rhs)
		if !ok {
			return false, false
		}
		ok, ch2 := tightenGE(lo, hi, c.terms, c.rhs)
		return ok, ch1 || ch2
	}
}

// propagate repeatedly tightens domains against every constraint until a
// fixed point, or reports infeasibility as soon as any domain empties.
func propagate(lo, hi []int, cons []constraint) bool {
	changed := true
	for changed {
		changed = false
		for _, c := range cons {
			ok, didChange := propagateConstraint(lo, hi, c)
			if !ok {
				return false
			}
			if didChange {
				changed = true
			}
		}
	}
	return true
}

func objectiveValue(lo, hi []int, terms []term) int64 {
	var total int64
	for _, t := range terms {
		if t.c >= 0 {
			total += int64(t.c) * int64(lo[t.v])
		} else {
			total += int64(t.c) * int64(hi[t.v])
		}
	}
	return total
}

func cloneInts(src []int) []int {
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}

type search struct {
	ctx          context.Context
	cons         []constraint
	objTerms     []term
	hasObjective bool
	deadline     time.Time
	nodeLimit    int
	nodes        int

	haveIncumbent bool
	stopEarly     bool // set once a solution is found and no objective was set
	best          []int
	bestObj       int64

	timedOut  bool
	cancelled bool
}

// budgetExceeded reports whether the search should stop expanding nodes,
// recording why so Solve can report StatusUnknown instead of
// StatusInfeasible when the search was cut short.
func (s *search) budgetExceeded() bool {
	select {
	case <-s.ctx.Done():
		s.cancelled = true
		return true
	default:
	}
	if time.Now().After(s.deadline) {
		s.timedOut = true
		return true
	}
	if s.nodeLimit > 0 && s.nodes > s.nodeLimit {
		s.timedOut = true
		return true
	}
	return false
}

func (s *search) run(lo, hi []int) {
	if s.stopEarly || s.budgetExceeded() {
		return
	}
	s.nodes++

	if !propagate(lo, hi, s.cons) {
		return
	}

	if s.hasObjective && s.haveIncumbent {
		if objectiveValue(lo, hi, s.objTerms) >= s.bestObj {
			return
		}
	}

	idx := -1
	for i := range lo {
		if lo[i] != hi[i] {
			idx = i
			break
		}
	}

	if idx == -1 {
		obj := objectiveValue(lo, hi, s.objTerms)
		if !s.haveIncumbent || obj < s.bestObj {
			s.haveIncumbent = true
			s.best = cloneInts(lo)
			s.bestObj = obj
		}
		if !s.hasObjective {
			s.stopEarly = true
		}
		return
	}

	mid := (lo[idx] + hi[idx]) / 2

	leftLo, leftHi := cloneInts(lo), cloneInts(hi)
	leftHi[idx] = mid
	s.run(leftLo, leftHi)

	if s.stopEarly {
		return
	}

	rightLo, rightHi := cloneInts(lo), cloneInts(hi)
	rightLo[idx] = mid + 1
	s.run(rightLo, rightHi)
}

// Solve searches for an assignment satisfying every constraint and, if an
// objective was set, minimizing it. maxSeconds <= 0 falls back to 30,
// matching models.DefaultSolveConfig's MaxSeconds.
func (m *Model) Solve(ctx context.Context, maxSeconds int) (*Solution, error) {
	if maxSeconds <= 0 {
		maxSeconds = 30
	}

	lo := cloneInts(m.lo)
	hi := cloneInts(m.hi)

	if !propagate(lo, hi, m.cons) {
		return &Solution{Status: StatusInfeasible}, nil
	}

	s := &search{
		ctx:          ctx,
		cons:         m.cons,
		objTerms:     m.objTerms,
		hasObjective: m.hasObjective,
		deadline:     time.Now().Add(time.Duration(maxSeconds) * time.Second),
		nodeLimit:    defaultNodeLimit,
	}
	s.run(lo, hi)

	if s.cancelled {
		return nil, ctx.Err()
	}

	if !s.haveIncumbent {
		if s.timedOut {
			return &Solution{Status: StatusUnknown}, nil
		}
		return &Solution{Status: StatusInfeasible}, nil
	}

	status := StatusFeasible
	if !s.timedOut && m.hasObjective {
		status = StatusOptimal
	} else if !m.hasObjective {
		status = StatusOptimal
	}

	sol := &Solution{Status: status, values: s.best}
	if m.hasObjective {
		v := s.bestObj
		sol.ObjectiveValue = &v
	}
	return sol, nil
}
