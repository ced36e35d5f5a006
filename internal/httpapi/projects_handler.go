package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timetable-engine/internal/engine"
	"timetable-engine/internal/serializer"
	"timetable-engine/internal/store"
	"timetable-engine/pkg/metrics"
	"timetable-engine/pkg/response"
)

// serializeSolution renders a solved engine.Result into the wire shape
// internal/serializer defines.
func serializeSolution(result *engine.Result) map[string]any {
	return serializer.Serialize(result.Solution)
}

// ProjectsHandler serves the project CRUD and validate/solve operations
// spec.md §6 names, backed by a store.ProjectStore.
type ProjectsHandler struct {
	store store.ProjectStore
}

// NewProjectsHandler returns a ProjectsHandler over store.
func NewProjectsHandler(projectStore store.ProjectStore) *ProjectsHandler {
	return &ProjectsHandler{store: projectStore}
}

type projectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type projectDetail struct {
	projectSummary
	Problem                map[string]any `json:"problem"`
	LastSolution           map[string]any `json:"last_solution,omitempty"`
	LastValidationWarnings []string       `json:"last_validation_warnings,omitempty"`
}

func toSummary(p store.Project) projectSummary {
	return projectSummary{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func toDetail(p store.Project) projectDetail {
	return projectDetail{
		projectSummary:         toSummary(p),
		Problem:                p.Problem,
		LastSolution:           p.LastSolution,
		LastValidationWarnings: p.LastValidationWarnings,
	}
}

// List handles GET /api/v1/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.List(r.Context())
	if err != nil {
		response.InternalError(w, "failed to list projects")
		return
	}
	summaries := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, toSummary(p))
	}
	response.OK(w, map[string]any{"projects": summaries})
}

type createProjectRequest struct {
	Name    string         `json:"name"`
	Problem map[string]any `json:"problem"`
}

// Create handles POST /api/v1/projects.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, response.ErrCodeInvalidInput, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(w, response.ErrCodeMissingField, "name is required")
		return
	}

	project, err := h.store.Create(r.Context(), req.Name, req.Problem)
	if err != nil {
		response.InternalError(w, "failed to create project")
		return
	}
	response.Created(w, toDetail(project))
}

// Get handles GET /api/v1/projects/{id}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w, "failed to get project")
		return
	}
	response.OK(w, toDetail(project))
}

type updateProjectRequest struct {
	Name    *string        `json:"name"`
	Problem map[string]any `json:"problem"`
}

// Update handles PUT /api/v1/projects/{id}.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, response.ErrCodeInvalidInput, "invalid request body")
		return
	}

	project, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.Problem)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w, "failed to update project")
		return
	}
	response.OK(w, toDetail(project))
}

// Delete handles DELETE /api/v1/projects/{id}.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w, "failed to delete project")
		return
	}
	response.NoContent(w)
}

// Validate handles POST /api/v1/projects/{id}/validate: runs the validator
// over the project's stored problem and persists the resulting warnings.
func (h *ProjectsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w, "failed to get project")
		return
	}

	report, err := engine.Validate(project.Problem)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	outcome := "ok"
	if !report.OK {
		outcome = "failed"
	}
	metrics.ValidationsTotal.WithLabelValues(outcome).Inc()

	if _, err := h.store.SetValidationWarnings(r.Context(), id, report.Warnings); err != nil {
		response.InternalError(w, "failed to persist validation warnings")
		return
	}

	response.OK(w, map[string]any{
		"ok":       report.OK,
		"errors":   report.Errors,
		"warnings": report.Warnings,
	})
}

// Solve handles POST /api/v1/projects/{id}/solve: runs the full pipeline
// over the project's stored problem, persists the solution on success, and
// reports the outcome via pkg/metrics.
func (h *ProjectsHandler) Solve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			response.NotFound(w, "project not found")
			return
		}
		response.InternalError(w, "failed to get project")
		return
	}

	start := time.Now()
	result, err := engine.Solve(r.Context(), project.Problem)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SolvesTotal.WithLabelValues("error").Inc()
		writeEngineError(w, err)
		return
	}

	metrics.SolvesTotal.WithLabelValues(strings.ToLower(result.Status.String())).Inc()
	metrics.EventsScheduledTotal.Add(float64(len(result.Solution.Scheduled)))
	if result.Solution.ObjectiveValue != nil {
		metrics.SolveObjectiveValue.Observe(float64(*result.Solution.ObjectiveValue))
	}

	payload := serializeSolution(result)
	if _, err := h.store.SetSolution(r.Context(), id, payload); err != nil {
		response.InternalError(w, "failed to persist solution")
		return
	}

	response.OK(w, payload)
}

// SolveAdHoc handles POST /api/v1/solve: runs the pipeline over a problem
// given directly in the request body, with no project created or stored.
// This mirrors the reference implementation's stateless /solve endpoint
// alongside its project-scoped one.
func (h *ProjectsHandler) SolveAdHoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Problem map[string]any `json:"problem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, response.ErrCodeInvalidInput, "invalid request body")
		return
	}

	start := time.Now()
	result, err := engine.Solve(r.Context(), req.Problem)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SolvesTotal.WithLabelValues("error").Inc()
		writeEngineError(w, err)
		return
	}

	metrics.SolvesTotal.WithLabelValues(strings.ToLower(result.Status.String())).Inc()
	metrics.EventsScheduledTotal.Add(float64(len(result.Solution.Scheduled)))
	response.OK(w, serializeSolution(result))
}

// ValidateAdHoc handles POST /api/v1/validate: runs the validator over a
// problem given directly in the request body.
func (h *ProjectsHandler) ValidateAdHoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Problem map[string]any `json:"problem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, response.ErrCodeInvalidInput, "invalid request body")
		return
	}

	report, err := engine.Validate(req.Problem)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	outcome := "ok"
	if !report.OK {
		outcome = "failed"
	}
	metrics.ValidationsTotal.WithLabelValues(outcome).Inc()

	response.OK(w, map[string]any{
		"ok":       report.OK,
		"errors":   report.Errors,
		"warnings": report.Warnings,
	})
}
