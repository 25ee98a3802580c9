package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	m "rig.dev/pkg/rig/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress view on its own goroutine.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := &StartConfig{}
	for _, option := range options {
		option(config)
	}

	model := newRunModel(config.total)
	t.program = tea.NewProgram(model, tea.WithOutput(t.output))
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		_, _ = t.program.Run()
	}()

	return nil
}

// Close stops the progress view if it is still running.
func (t *TUI) Close(ctx context.Context) {
	if t.program == nil {
		return
	}

	t.program.Send(runDoneMsg{})
	t.Wait(ctx)
}

// Wait blocks until the progress view exits.
func (t *TUI) Wait(_ context.Context) {
	if t.done == nil {
		return
	}

	<-t.done
}

// DisplayCollectionInfo feeds collection counts into the view.
func (t *TUI) DisplayCollectionInfo(_ context.Context, tests, fixtures int) {
	if t.program != nil {
		t.program.Send(collectedMsg{tests: tests, fixtures: fixtures})
	}
}

// DisplayConcurrencyInfo feeds the worker count into the view.
func (t *TUI) DisplayConcurrencyInfo(_ context.Context, threads int) {
	if t.program != nil {
		t.program.Send(threadsMsg{threads: threads})
	}
}

// DisplayStartingTest marks the invocation as in flight.
func (t *TUI) DisplayStartingTest(_ context.Context, inv *m.TestInvocation) {
	if t.program != nil {
		t.program.Send(testStartedMsg{id: inv.Location().String()})
	}
}

// DisplayCompletedTest advances the progress bar and counters.
func (t *TUI) DisplayCompletedTest(_ context.Context, outcome m.Outcome) {
	if t.program != nil {
		t.program.Send(testFinishedMsg{outcome: outcome})
	}
}

// DisplaySummary stops the progress view and prints the final table.
func (t *TUI) DisplaySummary(ctx context.Context, result *m.RunResult) error {
	t.Close(ctx)

	_, err := fmt.Fprintf(t.output, "\n%s\n", renderSummaryTable(result))
	if err != nil {
		return err
	}

	for _, runErr := range result.Errors {
		fmt.Fprintf(t.output, "%s %s\n  %s\n", erroredStyle.Render(string(runErr.Kind)), runErr.Location, runErr.Detail)
	}

	if result.Success() {
		fmt.Fprintf(t.output, "%s\n", passedStyle.Render("OK"))
	} else {
		fmt.Fprintf(t.output, "%s\n", failedStyle.Render("FAILED"))
	}

	return nil
}

type collectedMsg struct {
	tests    int
	fixtures int
}

type threadsMsg struct {
	threads int
}

type testStartedMsg struct {
	id string
}

type testFinishedMsg struct {
	outcome m.Outcome
}

type runDoneMsg struct{}

// runModel is the Bubble Tea model for the live run view.
type runModel struct {
	spin     spinner.Model
	bar      progress.Model
	total    int
	finished int
	passed   int
	failed   int
	errored  int
	skipped  int
	threads  int
	current  string
	quitting bool
}

func newRunModel(total int) runModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return runModel{
		spin:  spin,
		bar:   progress.New(progress.WithDefaultGradient()),
		total: total,
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spin.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			rm.quitting = true
			return rm, tea.Quit
		}

		return rm, nil

	case collectedMsg:
		if rm.total == 0 {
			rm.total = msg.tests
		}

		return rm, nil

	case threadsMsg:
		rm.threads = msg.threads
		return rm, nil

	case testStartedMsg:
		rm.current = msg.id
		return rm, nil

	case testFinishedMsg:
		rm.finished++

		switch msg.outcome.Status {
		case m.Passed:
			rm.passed++
		case m.Failed:
			rm.failed++
		case m.Errored:
			rm.errored++
		case m.Skipped:
			rm.skipped++
		}

		if rm.total > 0 {
			return rm, rm.bar.SetPercent(float64(rm.finished) / float64(rm.total))
		}

		return rm, nil

	case runDoneMsg:
		rm.quitting = true
		return rm, tea.Quit

	case progress.FrameMsg:
		bar, cmd := rm.bar.Update(msg)
		rm.bar = bar.(progress.Model)

		return rm, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spin, cmd = rm.spin.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

func (rm runModel) View() string {
	if rm.quitting {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", rm.spin.View(), rm.current)
	b.WriteString(rm.bar.View())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d/%d  %s %d  %s %d  %s %d  %s %d",
		rm.finished, rm.total,
		passedStyle.Render("passed"), rm.passed,
		failedStyle.Render("failed"), rm.failed,
		erroredStyle.Render("errored"), rm.errored,
		skippedStyle.Render("skipped"), rm.skipped,
	)

	if rm.threads > 1 {
		fmt.Fprintf(&b, "  (%d workers)", rm.threads)
	}

	b.WriteString("\n")

	return b.String()
}
