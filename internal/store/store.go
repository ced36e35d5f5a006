// Package store persists named timetabling projects: a raw problem payload
// plus whatever solution it last produced. The core engine has no storage
// dependency of its own (spec.md §1) — this package is the collaborator
// that sits beside it so internal/httpapi has somewhere to keep project
// state between a validate and a later solve.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrProjectNotFound is returned by Get/Update/Delete/SetSolution when no
// project with the given ID exists.
var ErrProjectNotFound = errors.New("project not found")

// Project is a named problem payload together with its last solve result,
// if any. Problem and LastSolution are the untyped map[string]any trees
// internal/deserializer and internal/serializer already speak, so the
// store never needs to know about models.Problem directly.
type Project struct {
	ID                     string
	Name                   string
	Problem                map[string]any
	LastSolution           map[string]any
	LastValidationWarnings []string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ProjectStore is the persistence boundary internal/httpapi depends on.
// MemoryStore and PostgresStore are its two implementations.
type ProjectStore interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id string) (Project, error)
	Create(ctx context.Context, name string, problem map[string]any) (Project, error)
	Update(ctx context.Context, id string, name *string, problem map[string]any) (Project, error)
	Delete(ctx context.Context, id string) error
	SetSolution(ctx context.Context, id string, solution map[string]any) (Project, error)
	SetValidationWarnings(ctx context.Context, id string, warnings []string) (Project, error)
}

// MemoryStore is a mutex-guarded in-process ProjectStore. It has no
// durability beyond the current process and is the default when no
// database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]Project
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]Project)}
}

func (s *MemoryStore) List(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (s *MemoryStore) Create(ctx context.Context, name string, problem map[string]any) (Project, error) {
	now := time.Now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		Problem:   problem,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, name *string, problem map[string]any) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if problem != nil {
		p.Problem = problem
	}
	p.UpdatedAt = time.Now().UTC()
	s.projects[id] = p
	return p, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) SetSolution(ctx context.Context, id string, solution map[string]any) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	p.LastSolution = solution
	p.UpdatedAt = time.Now().UTC()
	s.projects[id] = p
	return p, nil
}

func (s *MemoryStore) SetValidationWarnings(ctx context.Context, id string, warnings []string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	p.LastValidationWarnings = warnings
	p.UpdatedAt = time.Now().UTC()
	s.projects[id] = p
	return p, nil
}
