package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/task"
)

// Run performs a complete normalization: relocate, evaluate, schedule and
// execute manifest tasks. A report is written to the root build directory
// even when a task fails.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := newReport(e, started)
	runErr := e.run(ctx)
	report.finish(e, runErr)

	if err := e.WriteReport(report); err != nil {
		if runErr != nil {
			return report, errors.Join(runErr, err)
		}
		return report, err
	}

	if runErr != nil {
		e.logger.Error("run failed", "run_id", report.RunID, "error", runErr)
		return report, runErr
	}
	e.logger.Info("run completed",
		"run_id", report.RunID,
		"subprojects", len(report.Subprojects),
		"tasks", len(report.Tasks),
		"duration", report.Duration())
	return report, nil
}

func (e *Engine) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Relocate(); err != nil {
		return err
	}
	if err := e.Evaluate(ctx); err != nil {
		return err
	}
	if err := e.Schedule(); err != nil {
		return err
	}
	return e.Execute(ctx)
}

// Relocate assigns every subproject its output directory below the root
// build directory.
func (e *Engine) Relocate() error {
	if err := e.relocator.Relocate(e.graph.Subprojects()); err != nil {
		return err
	}
	e.logger.Debug("relocated subprojects", "root", e.buildDir, "count", len(e.graph.Subprojects()))
	return nil
}

// Evaluate configures and evaluates every subproject.
//
// Subprojects are configured in declaration order. Before a subproject is
// configured, everything its evaluation depends on is evaluated, so namespace
// inference registered on an already evaluated subproject runs immediately
// while the rest is queued until that subproject is evaluated. Once all
// subprojects are resolved the build-wide hooks fire.
func (e *Engine) Evaluate(ctx context.Context) error {
	if e.evaluated {
		return nil
	}

	order, err := e.graph.EvaluationOrder()
	if err != nil {
		return err
	}

	for _, s := range e.graph.Subprojects() {
		if err := ctx.Err(); err != nil {
			return err
		}
		upstream := e.graph.Upstream(s.ID)
		for _, dep := range order {
			if slices.Contains(upstream, dep.ID) {
				if err := e.evaluate(dep); err != nil {
					return err
				}
			}
		}
		if err := e.inferrer.Register(s); err != nil {
			return err
		}
	}

	for _, s := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.evaluate(s); err != nil {
			return err
		}
	}

	if err := e.build.Complete(); err != nil {
		return err
	}
	e.evaluated = true
	return nil
}

func (e *Engine) evaluate(s *project.Subproject) error {
	state := s.Evaluation()
	if state.Executed() {
		return nil
	}
	if _, err := e.fs.Stat(s.SourceDir()); err != nil {
		e.logger.Warn("subproject directory not found", "subproject", s.ID, "dir", s.SourceDir())
	}
	e.logger.Debug("evaluating subproject", "subproject", s.ID, "kind", s.Kind(), "queued_hooks", state.Pending())
	return state.MarkEvaluated()
}

func (e *Engine) applyToolchain() error {
	for _, s := range e.graph.Subprojects() {
		targets := e.cfg.Toolchain
		s.Toolchain = &targets
	}
	e.logger.Debug("applied compiler targets",
		"java", e.cfg.Toolchain.JavaTarget,
		"kotlin_jvm_target", e.cfg.Toolchain.KotlinJVMTarget)
	return nil
}

// Schedule creates the manifest tasks of every library or application
// subproject. A WhenTaskAdded rule attaches the manifest sanitizer to each
// recognized task as a DoFirst action.
func (e *Engine) Schedule() error {
	if e.scheduled {
		return nil
	}
	for _, s := range e.graph.Subprojects() {
		c := task.NewContainer(s.ID)
		if err := c.WhenTaskAdded(e.sanitizeRule(s)); err != nil {
			return err
		}
		if s.IsAndroid() {
			for _, name := range e.names.Names() {
				if _, err := c.Register(name, func(t *task.Task) {
					t.DoLast(e.handoff(s))
				}); err != nil {
					return err
				}
			}
		}
		e.containers[s.ID] = c
	}
	e.scheduled = true
	return nil
}

func (e *Engine) sanitizeRule(s *project.Subproject) task.Rule {
	return func(t *task.Task) error {
		if !e.names.Contains(t.Name) {
			return nil
		}
		t.DoFirst(func(_ context.Context, t *task.Task) error {
			res, err := e.sanitizer.Sanitize(s.ManifestPath())
			e.manifests[t.Path()] = res
			return err
		})
		return nil
	}
}

func (e *Engine) handoff(s *project.Subproject) task.Action {
	return func(ctx context.Context, t *task.Task) error {
		variant, _ := e.names.Variant(t.Name)
		desc, err := e.merger.Run(ctx, MergeRequest{
			Subproject: s.ID,
			Variant:    variant,
			Manifest:   s.ManifestPath(),
			OutputDir:  s.OutputDir,
			Namespace:  s.Namespace,
			Dir:        s.SourceDir(),
		})
		e.handoffs[t.Path()] = desc
		return err
	}
}

// Execute runs every scheduled task, subprojects in evaluation order and
// tasks in dependency order. The first failure aborts the run; tasks not yet
// started stay Scheduled.
func (e *Engine) Execute(ctx context.Context) error {
	if !e.scheduled {
		return ErrNotScheduled
	}
	order, err := e.graph.EvaluationOrder()
	if err != nil {
		return err
	}
	for _, s := range order {
		tasks, err := e.containers[s.ID].ExecutionOrder()
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.State() != task.Scheduled {
				continue
			}
			e.logger.Debug("executing task", "task", t.Path(), "pre_processing", t.HasPreProcessing())
			if err := t.Execute(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clean deletes the root build directory.
func (e *Engine) Clean() error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.relocator.Clean(); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	e.logger.Info("removed root build directory", "path", e.buildDir)
	return nil
}
