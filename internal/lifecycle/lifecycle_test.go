package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AfterEvaluate_DeferredWhilePending(t *testing.T) {
	s := NewState("camera")
	var calls []string

	require.NoError(t, s.AfterEvaluate(func() error {
		calls = append(calls, "first")
		return nil
	}))
	require.NoError(t, s.AfterEvaluate(func() error {
		calls = append(calls, "second")
		return nil
	}))

	assert.Empty(t, calls, "hooks must not run before evaluation")
	assert.Equal(t, 2, s.Pending())
	assert.Equal(t, Pending, s.Phase())

	require.NoError(t, s.MarkEvaluated())
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, Resolved, s.Phase())
	assert.Zero(t, s.Pending())
}

func TestState_AfterEvaluate_ImmediateWhenResolved(t *testing.T) {
	s := NewState("camera")
	require.NoError(t, s.MarkEvaluated())

	ran := false
	require.NoError(t, s.AfterEvaluate(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestState_MarkEvaluated_FiresOnce(t *testing.T) {
	s := NewState("camera")
	count := 0
	require.NoError(t, s.AfterEvaluate(func() error {
		count++
		return nil
	}))

	require.NoError(t, s.MarkEvaluated())
	require.NoError(t, s.MarkEvaluated())
	assert.Equal(t, 1, count)
}

func TestState_MarkEvaluated_StopsOnError(t *testing.T) {
	s := NewState("camera")
	boom := errors.New("boom")
	secondRan := false

	require.NoError(t, s.AfterEvaluate(func() error { return boom }))
	require.NoError(t, s.AfterEvaluate(func() error {
		secondRan = true
		return nil
	}))

	err := s.MarkEvaluated()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "camera")
	assert.False(t, secondRan)

	// The failure sticks.
	assert.ErrorIs(t, s.MarkEvaluated(), boom)
}

func TestState_AfterEvaluate_ImmediateError(t *testing.T) {
	s := NewState("camera")
	require.NoError(t, s.MarkEvaluated())

	boom := errors.New("boom")
	assert.ErrorIs(t, s.AfterEvaluate(func() error { return boom }), boom)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}

func TestBuild_Complete(t *testing.T) {
	app := NewState("app")
	lib := NewState("lib")
	b := NewBuild(app, lib)

	fired := 0
	require.NoError(t, b.ProjectsEvaluated(func() error {
		fired++
		return nil
	}))

	require.NoError(t, app.MarkEvaluated())
	err := b.Complete()
	require.ErrorIs(t, err, ErrBuildNotEvaluated)
	assert.Contains(t, err.Error(), "lib")
	assert.Zero(t, fired)
	assert.False(t, b.Evaluated())

	require.NoError(t, lib.MarkEvaluated())
	require.NoError(t, b.Complete())
	assert.Equal(t, 1, fired)
	assert.True(t, b.Evaluated())

	// Late registrations run immediately.
	require.NoError(t, b.ProjectsEvaluated(func() error {
		fired++
		return nil
	}))
	assert.Equal(t, 2, fired)
}
