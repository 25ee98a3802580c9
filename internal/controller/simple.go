package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	m "rig.dev/pkg/rig/internal/model"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	erroredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func styledStatus(status m.Status) string {
	switch status {
	case m.Passed:
		return passedStyle.Render(status.String())
	case m.Failed:
		return failedStyle.Render(status.String())
	case m.Errored:
		return erroredStyle.Render(status.String())
	case m.Skipped:
		return skippedStyle.Render(status.String())
	}

	return status.String()
}

// SimpleUI implements UI using cobra Command's Println.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayCollectionInfo shows what the collection phase produced.
func (s *SimpleUI) DisplayCollectionInfo(ctx context.Context, tests, fixtures int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Collected %d test(s) and %d fixture(s)\n", tests, fixtures)
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, threads int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Running with %d worker(s)\n", threads)
}

// DisplayStartingTest shows the invocation about to run.
func (s *SimpleUI) DisplayStartingTest(ctx context.Context, inv *m.TestInvocation) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Running %s\n", inv.Location())
}

// DisplayCompletedTest shows one finished invocation.
func (s *SimpleUI) DisplayCompletedTest(ctx context.Context, outcome m.Outcome) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s %s\n", styledStatus(outcome.Status), outcome.Location)

	if outcome.Message != "" && outcome.Status != m.Passed {
		s.printf("  %s\n", outcome.Message)
	}
}

// DisplaySummary prints the per-file table, structural errors and the verdict.
func (s *SimpleUI) DisplaySummary(ctx context.Context, result *m.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s\n", renderSummaryTable(result))

	for _, runErr := range result.Errors {
		s.printf("%s %s\n", erroredStyle.Render(string(runErr.Kind)), runErr.Location)
		s.printf("  %s\n", runErr.Detail)
	}

	if result.Success() {
		s.printf("%s\n", passedStyle.Render("OK"))
	} else {
		s.printf("%s\n", failedStyle.Render("FAILED"))
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

type fileStat struct {
	path    string
	passed  int
	failed  int
	errored int
	skipped int
}

func buildFileStats(outcomes []m.Outcome) []fileStat {
	info := make(map[string]fileStat)

	for _, outcome := range outcomes {
		path := string(outcome.Location.File)
		stat := info[path]
		stat.path = path

		switch outcome.Status {
		case m.Passed:
			stat.passed++
		case m.Failed:
			stat.failed++
		case m.Errored:
			stat.errored++
		case m.Skipped:
			stat.skipped++
		}

		info[path] = stat
	}

	statsList := lo.Values(info)

	sort.Slice(statsList, func(i, j int) bool {
		return statsList[i].path < statsList[j].path
	})

	return statsList
}

func renderSummaryTable(result *m.RunResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Passed", "Failed", "Errored", "Skipped"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	for _, stat := range buildFileStats(result.Outcomes) {
		table.Append([]string{
			stat.path,
			fmt.Sprintf("%d", stat.passed),
			fmt.Sprintf("%d", stat.failed),
			fmt.Sprintf("%d", stat.errored),
			fmt.Sprintf("%d", stat.skipped),
		})
	}

	table.SetFooter([]string{
		"Total",
		fmt.Sprintf("%d", result.Summary.Passed),
		fmt.Sprintf("%d", result.Summary.Failed),
		fmt.Sprintf("%d", result.Summary.Errored),
		fmt.Sprintf("%d", result.Summary.Skipped),
	})

	table.Render()

	return tableBuffer.String()
}
