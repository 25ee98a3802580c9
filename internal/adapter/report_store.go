package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "rig.dev/pkg/rig/internal/model"
	pkg "rig.dev/pkg/rig/pkg"
)

const (
	outcomesLogName = "outcomes.gob"
	summaryFileName = "summary.yaml"
)

// ReportStore persists run results under an output directory: the outcome
// stream goes to an append-only gob log and the aggregate summary to a
// small YAML file.
type ReportStore interface {
	SaveResult(dir m.Path, result *m.RunResult) error
	LoadOutcomes(dir m.Path) ([]m.Outcome, error)
}

type reportStore struct{}

// NewReportStore creates a filesystem-backed ReportStore.
func NewReportStore() ReportStore {
	return &reportStore{}
}

type reportSummary struct {
	Passed  int           `yaml:"passed"`
	Failed  int           `yaml:"failed"`
	Errored int           `yaml:"errored"`
	Skipped int           `yaml:"skipped"`
	Errors  []reportError `yaml:"errors,omitempty"`
}

type reportError struct {
	Kind     string `yaml:"kind"`
	Location string `yaml:"location"`
	Detail   string `yaml:"detail"`
}

// SaveResult implements ReportStore.
func (s *reportStore) SaveResult(dir m.Path, result *m.RunResult) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		slog.Error("failed to create reports dir", "dir", dir, "error", err)
		return fmt.Errorf("failed to create reports dir: %w", err)
	}

	log, err := pkg.NewRunLog[m.Outcome](filepath.Join(string(dir), outcomesLogName))
	if err != nil {
		return err
	}

	defer func() {
		if err := log.Close(); err != nil {
			slog.Error("failed to close outcome log", "dir", dir, "error", err)
		}
	}()

	if err := log.AppendBatch(result.Outcomes); err != nil {
		return err
	}

	summary := reportSummary{
		Passed:  result.Summary.Passed,
		Failed:  result.Summary.Failed,
		Errored: result.Summary.Errored,
		Skipped: result.Summary.Skipped,
	}

	for _, runErr := range result.Errors {
		summary.Errors = append(summary.Errors, reportError{
			Kind:     string(runErr.Kind),
			Location: runErr.Location.String(),
			Detail:   runErr.Detail,
		})
	}

	raw, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), summaryFileName), raw, 0o600); err != nil {
		slog.Error("failed to write summary", "dir", dir, "error", err)
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// LoadOutcomes implements ReportStore.
func (s *reportStore) LoadOutcomes(dir m.Path) ([]m.Outcome, error) {
	log, err := pkg.OpenRunLog[m.Outcome](filepath.Join(string(dir), outcomesLogName))
	if err != nil {
		return nil, err
	}

	outcomes := make([]m.Outcome, 0, log.Len())

	err = log.Range(func(_ uint64, outcome m.Outcome) error {
		outcomes = append(outcomes, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcomes, nil
}
