// Package controller provides output adapters for displaying test run progress and results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	m "rig.dev/pkg/rig/internal/model"
)

// StartOption is a functional option for Start.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	total int
}

// WithTotal tells the UI how many invocations the run will execute.
func WithTotal(total int) StartOption {
	return func(c *StartConfig) {
		c.total = total
	}
}

// UI displays run progress and results. Implementations can use different
// output methods (simple text, TUI).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayCollectionInfo(ctx context.Context, tests, fixtures int)
	DisplayConcurrencyInfo(ctx context.Context, threads int)
	DisplayStartingTest(ctx context.Context, inv *m.TestInvocation)
	DisplayCompletedTest(ctx context.Context, outcome m.Outcome)
	DisplaySummary(ctx context.Context, result *m.RunResult) error
}

// NewUI selects the TUI on interactive terminals and the simple text UI
// otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(os.Stdout)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether the file is an interactive terminal.
func IsTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
