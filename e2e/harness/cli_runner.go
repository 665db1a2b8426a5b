package harness

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/artpar/treeview/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands.
type CLIRunner struct {
	harness *E2EHarness
	stdin   string
}

// WithStdin returns a runner that feeds stdin to each command.
func (r *CLIRunner) WithStdin(stdin string) *CLIRunner {
	return &CLIRunner{harness: r.harness, stdin: stdin}
}

// Run executes a CLI command with the given arguments.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(r.stdin))
	cmd.SetArgs(append(args, "--data-dir", r.harness.tmpDir))

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Print is a convenience method for the print command.
func (r *CLIRunner) Print(path string, opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"print", path}, opts...)...)
}

// Validate is a convenience method for the validate command.
func (r *CLIRunner) Validate(path string, opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"validate", path}, opts...)...)
}
