package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/leapstack-labs/projnorm/internal/manifest"
	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/task"
	"github.com/leapstack-labs/projnorm/internal/toolchain"
)

// Report location relative to the root build directory.
const (
	ReportDir  = ".projnorm"
	ReportFile = "normalized.json"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Report summarizes one normalization run.
type Report struct {
	RunID       string             `json:"run_id"`
	Project     string             `json:"project"`
	ProjectDir  string             `json:"project_dir"`
	BuildDir    string             `json:"build_dir"`
	Status      string             `json:"status"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Subprojects []SubprojectReport `json:"subprojects"`
	Tasks       []TaskReport       `json:"tasks"`
}

// SubprojectReport is the normalized state of one subproject.
type SubprojectReport struct {
	ID                string             `json:"id"`
	Kind              project.Kind       `json:"kind"`
	OutputDir         string             `json:"output_dir"`
	Namespace         string             `json:"namespace,omitempty"`
	NamespaceInferred bool               `json:"namespace_inferred"`
	Toolchain         *toolchain.Targets `json:"toolchain,omitempty"`
}

// TaskReport is the outcome of one manifest task.
type TaskReport struct {
	Path     string           `json:"path"`
	State    task.State       `json:"state"`
	Manifest *manifest.Result `json:"manifest,omitempty"`
	Handoff  string           `json:"handoff,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Modified returns the manifests the run rewrote.
func (r *Report) Modified() []string {
	var out []string
	for _, t := range r.Tasks {
		if t.Manifest != nil && t.Manifest.Modified {
			out = append(out, t.Manifest.Path)
		}
	}
	return out
}

func newReport(e *Engine, started time.Time) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Project:    e.graph.Name,
		ProjectDir: e.cfg.ProjectDir,
		BuildDir:   e.buildDir,
		StartedAt:  started.UTC(),
	}
}

func (r *Report) finish(e *Engine, runErr error) {
	r.FinishedAt = time.Now().UTC()
	r.Status = StatusSuccess
	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
	}

	for _, s := range e.graph.Subprojects() {
		r.Subprojects = append(r.Subprojects, SubprojectReport{
			ID:                s.ID,
			Kind:              s.Kind(),
			OutputDir:         s.OutputDir,
			Namespace:         s.Namespace,
			NamespaceInferred: s.NamespaceInferred,
			Toolchain:         s.Toolchain,
		})
		c, ok := e.containers[s.ID]
		if !ok {
			continue
		}
		for _, t := range c.Tasks() {
			tr := TaskReport{Path: t.Path(), State: t.State(), Handoff: e.handoffs[t.Path()]}
			if res, ok := e.manifests[t.Path()]; ok {
				tr.Manifest = &res
			}
			if t.Err() != nil {
				tr.Error = t.Err().Error()
			}
			r.Tasks = append(r.Tasks, tr)
		}
	}
}

// ReportPath returns where the run report is written.
func (e *Engine) ReportPath() string {
	return filepath.Join(e.buildDir, ReportDir, ReportFile)
}

// WriteReport writes r as indented JSON below the root build directory.
func (e *Engine) WriteReport(r *Report) error {
	path := e.ReportPath()
	if err := e.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := afero.WriteFile(e.fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	e.logger.Debug("wrote report", "path", path)
	return nil
}

// ErrNoReport is returned by ReadReport when no run has written a report.
var ErrNoReport = errors.New("no report found")

// ReadReport loads the report of the last run.
func (e *Engine) ReadReport() (*Report, error) {
	data, err := afero.ReadFile(e.fs, e.ReportPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoReport, e.ReportPath())
	}
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", e.ReportPath(), err)
	}
	return &r, nil
}
