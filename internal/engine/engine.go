// Package engine wires deserializer, validator, compiler, modelbuilder,
// solver and reconstructor into the two operations the rest of the
// repository calls: Validate and Solve. The engine is pure with respect to
// external state — it never logs, never touches a clock beyond the
// caller-supplied context deadline, and never talks to storage. Callers in
// internal/httpapi and cmd/* own all of that.
package engine

import (
	"context"

	"timetable-engine/internal/compiler"
	"timetable-engine/internal/deserializer"
	"timetable-engine/internal/modelbuilder"
	"timetable-engine/internal/models"
	"timetable-engine/internal/reconstructor"
	"timetable-engine/internal/serializer"
	"timetable-engine/internal/solver"
	"timetable-engine/internal/validator"
)

// Result is the outcome of a successful Solve.
type Result struct {
	Problem  models.Problem
	Solution models.TimetableSolution
	Status   solver.Status
}

// Validate deserializes raw and runs every check group, always returning a
// report (never an error for a merely invalid problem — only for a payload
// so malformed it cannot be parsed at all).
func Validate(raw map[string]any) (validator.Report, error) {
	problem, err := deserializer.Deserialize(raw)
	if err != nil {
		return validator.Report{}, err
	}
	return validator.Validate(problem), nil
}

// Solve deserializes raw, validates it strictly (failing with every
// validation error before compiling), compiles it to unit events, builds the optimization
// model, runs the solver, and reconstructs the timetable. ctx governs the
// solver's deadline; the problem's configured Config.MaxSeconds is still an
// upper bound independent of ctx.
func Solve(ctx context.Context, raw map[string]any) (*Result, error) {
	problem, err := deserializer.Deserialize(raw)
	if err != nil {
		return nil, err
	}

	if _, err := validator.ValidateStrict(problem); err != nil {
		return nil, err
	}

	compiled, err := compiler.Compile(problem)
	if err != nil {
		return nil, err
	}

	built, err := modelbuilder.Build(problem, compiled)
	if err != nil {
		return nil, err
	}

	sol, err := built.Model.Solve(ctx, problem.Config.MaxSeconds)
	if err != nil {
		return nil, err
	}

	timetable, err := reconstructor.Reconstruct(sol, built)
	if err != nil {
		return nil, err
	}

	return &Result{Problem: problem, Solution: timetable, Status: sol.Status}, nil
}

// SolveAndSerialize runs Solve and renders the timetable into the
// spec-shaped response payload serializer.Serialize produces, for callers
// (httpapi, timetablectl) that want the wire format directly.
func SolveAndSerialize(ctx context.Context, raw map[string]any) (map[string]any, error) {
	result, err := Solve(ctx, raw)
	if err != nil {
		return nil, err
	}
	return serializer.Serialize(result.Solution), nil
}
