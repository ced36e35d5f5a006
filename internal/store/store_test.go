package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateGetList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p1, err := s.Create(ctx, "Spring term", map[string]any{"calendar": map[string]any{}})
	require.NoError(t, err)
	assert.NotEmpty(t, p1.ID)

	p2, err := s.Create(ctx, "Fall term", map[string]any{"calendar": map[string]any{}})
	require.NoError(t, err)

	got, err := s.Get(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.Name, got.Name)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, p1.ID, all[0].ID, "list orders by creation time")
	assert.Equal(t, p2.ID, all[1].ID)
}

func TestMemoryStore_GetUnknownReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryStore_UpdateNameAndProblem(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p, err := s.Create(ctx, "Draft", map[string]any{"calendar": map[string]any{}})
	require.NoError(t, err)

	newName := "Final"
	newProblem := map[string]any{"calendar": map[string]any{"days": []any{"mon"}}}
	updated, err := s.Update(ctx, p.ID, &newName, newProblem)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Name)
	assert.Equal(t, newProblem, updated.Problem)
	assert.True(t, updated.UpdatedAt.After(p.CreatedAt) || updated.UpdatedAt.Equal(p.CreatedAt))
}

func TestMemoryStore_UpdateUnknownReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	name := "x"
	_, err := s.Update(context.Background(), "missing", &name, nil)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p, err := s.Create(ctx, "Temp", map[string]any{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrProjectNotFound)
}

func TestMemoryStore_SetSolutionAndValidationWarnings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p, err := s.Create(ctx, "Project", map[string]any{})
	require.NoError(t, err)

	solution := map[string]any{"scheduled": []any{}}
	updated, err := s.SetSolution(ctx, p.ID, solution)
	require.NoError(t, err)
	assert.Equal(t, solution, updated.LastSolution)

	updated, err = s.SetValidationWarnings(ctx, p.ID, []string{"group G1 fills 100% of teaching slots"})
	require.NoError(t, err)
	assert.Equal(t, []string{"group G1 fills 100% of teaching slots"}, updated.LastValidationWarnings)
}
