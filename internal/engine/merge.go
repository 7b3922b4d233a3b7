package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// MergeRequest describes the manifest handed to the merge step.
type MergeRequest struct {
	Subproject string
	Variant    string
	Manifest   string
	OutputDir  string
	Namespace  string
	// Dir is the working directory of the command; the runner's own
	// directory when empty.
	Dir string
}

// Env returns the variables exported to the merge command.
func (r MergeRequest) Env() []string {
	return []string{
		"PROJNORM_PROJECT=" + r.Subproject,
		"PROJNORM_VARIANT=" + r.Variant,
		"PROJNORM_MANIFEST=" + r.Manifest,
		"PROJNORM_OUTPUT_DIR=" + r.OutputDir,
		"PROJNORM_NAMESPACE=" + r.Namespace,
	}
}

// MergeRunner is the action of every manifest task: it hands the sanitized
// manifest to an external merge command, or only records the handoff when
// none is configured.
type MergeRunner struct {
	argv   []string
	dir    string
	logger *slog.Logger
}

// NewMergeRunner parses command with shell quoting rules. An empty command
// yields a runner that records handoffs without executing anything.
func NewMergeRunner(command, dir string, logger *slog.Logger) (*MergeRunner, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &MergeRunner{dir: dir, logger: logger}

	command = strings.TrimSpace(command)
	if command == "" {
		return r, nil
	}
	if strings.ContainsAny(command, "\r\n") {
		return nil, errors.New("merge_command cannot contain newlines")
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing merge_command: %w", err)
	}
	if len(argv) == 0 {
		return r, nil
	}
	if strings.HasPrefix(argv[0], "-") {
		return nil, fmt.Errorf("merge_command %q: command name cannot start with a dash", argv[0])
	}
	r.argv = argv
	return r, nil
}

// Configured reports whether an external command will be run.
func (r *MergeRunner) Configured() bool {
	return len(r.argv) > 0
}

// Run executes the merge command with the manifest path appended as the last
// argument. It returns a one-line description of the handoff.
func (r *MergeRunner) Run(ctx context.Context, req MergeRequest) (string, error) {
	if !r.Configured() {
		r.logger.Debug("manifest ready for merge", "subproject", req.Subproject, "variant", req.Variant, "manifest", req.Manifest)
		return "handed off " + req.Manifest, nil
	}

	args := append(append([]string{}, r.argv[1:]...), req.Manifest)
	cmd := exec.CommandContext(ctx, r.argv[0], args...)
	cmd.Dir = r.dir
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	cmd.Env = append(os.Environ(), req.Env()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("merge command %s: %w: %s", r.argv[0], err, msg)
		}
		return "", fmt.Errorf("merge command %s: %w", r.argv[0], err)
	}

	desc := strings.TrimSpace(string(out))
	if desc == "" {
		desc = "merged by " + r.argv[0]
	}
	r.logger.Debug("merge command finished", "subproject", req.Subproject, "variant", req.Variant, "output", desc)
	return desc, nil
}

// Check reports whether the merge command can be found. A runner without a
// command always passes.
func (r *MergeRunner) Check() error {
	if !r.Configured() {
		return nil
	}
	name := r.argv[0]
	if strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		name = filepath.Join(r.dir, name)
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("merge command %s: %w", r.argv[0], err)
	}
	return nil
}
