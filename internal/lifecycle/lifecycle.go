// Package lifecycle models deferred evaluation of subprojects.
//
// A State starts Pending. Hooks registered with AfterEvaluate while Pending
// are queued and fire, in registration order, when MarkEvaluated moves the
// state to Resolved. Hooks registered after that run immediately. Build holds
// the build-wide ProjectsEvaluated queue that fires once every subproject
// has been resolved.
package lifecycle

import (
	"errors"
	"fmt"
)

// Phase is the evaluation phase of a subproject.
type Phase int

const (
	// Pending means the subproject has not been evaluated yet.
	Pending Phase = iota
	// Resolved means evaluation has completed and queued hooks have fired.
	Resolved
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Hook is a callback run once evaluation has completed.
type Hook func() error

// State tracks the evaluation phase of a single subproject.
type State struct {
	name   string
	phase  Phase
	queue  []Hook
	failed error
}

// NewState returns a Pending state for the named subproject.
func NewState(name string) *State {
	return &State{name: name}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return s.phase
}

// Executed reports whether the subproject has been evaluated.
func (s *State) Executed() bool {
	return s.phase == Resolved
}

// AfterEvaluate runs fn now if the state is Resolved, otherwise queues it.
// The returned error is only non-nil when fn ran immediately and failed.
func (s *State) AfterEvaluate(fn Hook) error {
	if s.phase == Resolved {
		if err := fn(); err != nil {
			return fmt.Errorf("%s: after-evaluate hook: %w", s.name, err)
		}
		return nil
	}
	s.queue = append(s.queue, fn)
	return nil
}

// MarkEvaluated moves the state to Resolved and fires queued hooks in order.
// A failing hook stops the rest; the state stays Resolved and the error is
// returned again by later calls. Calling it again after success is a no-op.
func (s *State) MarkEvaluated() error {
	if s.phase == Resolved {
		return s.failed
	}
	s.phase = Resolved

	queue := s.queue
	s.queue = nil
	for _, fn := range queue {
		if err := fn(); err != nil {
			s.failed = fmt.Errorf("%s: after-evaluate hook: %w", s.name, err)
			return s.failed
		}
	}
	return nil
}

// Pending returns the number of queued hooks.
func (s *State) Pending() int {
	return len(s.queue)
}

// ErrBuildNotEvaluated is returned by Build.Complete when a tracked
// subproject is still Pending.
var ErrBuildNotEvaluated = errors.New("not all subprojects have been evaluated")

// Build tracks the evaluation of every subproject in a build.
type Build struct {
	states    []*State
	evaluated *State
}

// NewBuild returns a Build tracking the given subproject states.
func NewBuild(states ...*State) *Build {
	return &Build{
		states:    states,
		evaluated: NewState("build"),
	}
}

// ProjectsEvaluated registers fn to run once every subproject is resolved.
func (b *Build) ProjectsEvaluated(fn Hook) error {
	return b.evaluated.AfterEvaluate(fn)
}

// Complete fires the ProjectsEvaluated queue. It fails without firing
// anything if some subproject is still Pending.
func (b *Build) Complete() error {
	for _, s := range b.states {
		if !s.Executed() {
			return fmt.Errorf("%w: %s", ErrBuildNotEvaluated, s.name)
		}
	}
	return b.evaluated.MarkEvaluated()
}

// Evaluated reports whether Complete has run.
func (b *Build) Evaluated() bool {
	return b.evaluated.Executed()
}
