// Package task models the per-subproject tasks projnorm hooks into.
//
// A task moves Scheduled -> PreProcessed -> Executed. DoFirst actions run
// on the first transition and the task's own actions on the second, so a
// DoFirst hook always finishes before the action consumes its inputs. Any
// failing action moves the task to Failed.
package task

import (
	"context"
	"errors"
	"fmt"
)

// State is the execution state of a task.
type State int

const (
	Scheduled State = iota
	PreProcessed
	Executed
	Failed
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case PreProcessed:
		return "pre-processed"
	case Executed:
		return "executed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state by name in reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{Scheduled, PreProcessed, Executed, Failed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", text)
}

// ErrInvalidTransition is returned when a task is driven out of order.
var ErrInvalidTransition = errors.New("invalid task state transition")

// Action is a unit of work attached to a task.
type Action func(ctx context.Context, t *Task) error

// Task is a named step of a subproject.
type Task struct {
	Name    string
	Project string

	dependsOn []string
	doFirst   []Action
	actions   []Action
	state     State
	err       error
}

// New returns a Scheduled task.
func New(project, name string) *Task {
	return &Task{Name: name, Project: project}
}

// Path returns the fully qualified task path, e.g. ":app:processDebugManifest".
func (t *Task) Path() string {
	return ":" + t.Project + ":" + t.Name
}

// DoFirst prepends an action that runs before every other action.
func (t *Task) DoFirst(a Action) {
	t.doFirst = append([]Action{a}, t.doFirst...)
}

// DoLast appends an action to the task body.
func (t *Task) DoLast(a Action) {
	t.actions = append(t.actions, a)
}

// DependsOn declares tasks of the same subproject that must execute first.
func (t *Task) DependsOn(names ...string) {
	t.dependsOn = append(t.dependsOn, names...)
}

// Dependencies returns the declared dependencies.
func (t *Task) Dependencies() []string {
	return t.dependsOn
}

// HasPreProcessing reports whether any DoFirst action is attached.
func (t *Task) HasPreProcessing() bool {
	return len(t.doFirst) > 0
}

// State returns the current state.
func (t *Task) State() State {
	return t.state
}

// Err returns the failure that moved the task to Failed, if any.
func (t *Task) Err() error {
	return t.err
}

// Execute drives the task from Scheduled to Executed.
func (t *Task) Execute(ctx context.Context) error {
	if t.state != Scheduled {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, t.Path(), t.state)
	}

	if err := t.run(ctx, t.doFirst); err != nil {
		return t.fail(err)
	}
	t.state = PreProcessed

	if err := t.run(ctx, t.actions); err != nil {
		return t.fail(err)
	}
	t.state = Executed
	return nil
}

func (t *Task) run(ctx context.Context, actions []Action) error {
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) fail(err error) error {
	t.state = Failed
	t.err = fmt.Errorf("task %s failed: %w", t.Path(), err)
	return t.err
}
