// Package adapter provides the suite manifest loader and report persistence.
package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	m "rig.dev/pkg/rig/internal/model"
)

// SuiteLoader turns a suite manifest into the engine's discovery input.
// The manifest is the discovery collaborator for the CLI: it declares
// fixtures (location, scope, dependencies, scripted body) and tests
// (location, parameter names, parametrize data, scripted body).
type SuiteLoader interface {
	Load(path string) (*m.Suite, *SuiteLog, error)
}

// SuiteLog records the setup/teardown/test events emitted by scripted
// bodies, in execution order. Safe for concurrent use.
type SuiteLog struct {
	mu     sync.Mutex
	events []string
}

// Record appends one event.
func (l *SuiteLog) Record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

// Events returns a copy of the recorded events.
func (l *SuiteLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

type yamlSuiteLoader struct{}

// NewYAMLSuiteLoader creates a SuiteLoader for YAML manifests.
func NewYAMLSuiteLoader() SuiteLoader {
	return &yamlSuiteLoader{}
}

type suiteManifest struct {
	Root     string        `yaml:"root"`
	Fixtures []fixtureSpec `yaml:"fixtures"`
	Tests    []testSpec    `yaml:"tests"`
}

type fixtureSpec struct {
	Name     string   `yaml:"name"`
	File     string   `yaml:"file"`
	Scope    string   `yaml:"scope"`
	Deps     []string `yaml:"deps"`
	Value    string   `yaml:"value"`
	Message  string   `yaml:"message"`
	Teardown bool     `yaml:"teardown"`
	Fail     string   `yaml:"fail"`
}

type testSpec struct {
	Name        string            `yaml:"name"`
	File        string            `yaml:"file"`
	Params      []string          `yaml:"params"`
	Parametrize []parametrizeSpec `yaml:"parametrize"`
	Expect      map[string]string `yaml:"expect"`
	Fail        string            `yaml:"fail"`
	Error       string            `yaml:"error"`
	Skip        string            `yaml:"skip"`
}

type parametrizeSpec struct {
	Names []string `yaml:"names"`
	Rows  [][]any  `yaml:"rows"`
}

// Load parses the manifest and synthesizes scripted bodies around the
// returned SuiteLog. Fixture and test declaration order is preserved, so
// registration-order semantics (first duplicate wins) match the manifest.
func (l *yamlSuiteLoader) Load(path string) (*m.Suite, *SuiteLog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read suite manifest", "path", path, "error", err)
		return nil, nil, fmt.Errorf("failed to read suite manifest: %w", err)
	}

	var manifest suiteManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		slog.Error("failed to parse suite manifest", "path", path, "error", err)
		return nil, nil, fmt.Errorf("failed to parse suite manifest: %w", err)
	}

	log := &SuiteLog{}
	suite := &m.Suite{Root: m.Path(manifest.Root)}

	for i, spec := range manifest.Fixtures {
		if spec.Name == "" || spec.File == "" {
			return nil, nil, fmt.Errorf("fixture %d: name and file are required", i)
		}

		suite.Fixtures = append(suite.Fixtures, buildFixture(spec, log))
	}

	for i, spec := range manifest.Tests {
		if spec.Name == "" || spec.File == "" {
			return nil, nil, fmt.Errorf("test %d: name and file are required", i)
		}

		suite.Tests = append(suite.Tests, buildTest(spec, log))
	}

	slog.Debug("loaded suite manifest", "path", path, "fixtures", len(suite.Fixtures), "tests", len(suite.Tests))

	return suite, log, nil
}

func buildFixture(spec fixtureSpec, log *SuiteLog) *m.FixtureDefinition {
	file := m.Path(spec.File)
	value := spec.Value

	if value == "" {
		value = spec.Name
	}

	body := func(_ m.Args) (any, m.Teardown, error) {
		if spec.Message != "" {
			log.Record(spec.Message)
		}

		log.Record("setup " + spec.Name)

		if spec.Fail != "" {
			return nil, nil, errors.New(spec.Fail)
		}

		var teardown m.Teardown
		if spec.Teardown {
			teardown = func() error {
				log.Record("teardown " + spec.Name)
				return nil
			}
		}

		return value, teardown, nil
	}

	return &m.FixtureDefinition{
		Name:         spec.Name,
		File:         file,
		Dir:          file.Dir(),
		RawScope:     spec.Scope,
		Dependencies: spec.Deps,
		IsGenerator:  spec.Teardown,
		Body:         body,
	}
}

func buildTest(spec testSpec, log *SuiteLog) *m.TestItem {
	params := make([]string, 0, len(spec.Params))
	params = append(params, spec.Params...)

	specs := make([]m.ParametrizeSpec, 0, len(spec.Parametrize))
	for _, p := range spec.Parametrize {
		specs = append(specs, m.ParametrizeSpec{Names: p.Names, Rows: p.Rows})
	}

	body := func(args m.Args) error {
		log.Record("test " + spec.Name)

		if spec.Error != "" {
			return errors.New(spec.Error)
		}

		if spec.Fail != "" {
			return m.Assertf("%s", spec.Fail)
		}

		for name, want := range spec.Expect {
			got := fmt.Sprintf("%v", args[name])
			if got != want {
				return m.Assertf("expected %s to equal %q\n%s", name, want, unifiedDiff(want, got))
			}
		}

		return nil
	}

	return &m.TestItem{
		Location:    m.Location{File: m.Path(spec.File), Name: spec.Name},
		Params:      params,
		Parametrize: specs,
		SkipReason:  spec.Skip,
		Body:        body,
	}
}

func unifiedDiff(want, got string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return diff
}
