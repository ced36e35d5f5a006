package httpapi

import (
	"context"
	"errors"
	"net/http"

	"timetable-engine/internal/models"
	"timetable-engine/pkg/response"
)

// writeEngineError maps an error returned by engine.Validate/engine.Solve to
// the HTTP status and body spec.md §6 assigns it: malformed payloads are a
// client error, validation/compile/solve failures are well-formed requests
// that the problem itself makes infeasible (422), and a context deadline is
// reported as a timeout rather than a generic failure.
func writeEngineError(w http.ResponseWriter, err error) {
	var parseErr *models.ParseError
	var validationErr *models.ValidationFailed
	var compileErr *models.CompileError
	var noSolutionErr *models.NoSolution
	var invariantErr *models.ModelInvariantViolation

	switch {
	case errors.As(err, &parseErr):
		response.BadRequest(w, response.ErrCodeInvalidInput, err.Error())
	case errors.As(err, &validationErr):
		response.UnprocessableEntity(w, response.ErrCodeProblemInvalid, err.Error())
	case errors.As(err, &compileErr):
		response.UnprocessableEntity(w, response.ErrCodeCompileFailed, err.Error())
	case errors.As(err, &noSolutionErr):
		response.UnprocessableEntity(w, response.ErrCodeNoSolution, err.Error())
	case errors.As(err, &invariantErr):
		response.InternalError(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.RequestTimeout(w, "solve exceeded its time budget")
	default:
		response.InternalError(w, err.Error())
	}
}
