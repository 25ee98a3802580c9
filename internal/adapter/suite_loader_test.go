package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	m "rig.dev/pkg/rig/internal/model"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return path
}

func TestLoadExampleManifest(t *testing.T) {
	loader := NewYAMLSuiteLoader()

	suite, log, err := loader.Load(filepath.Join("..", "..", "examples", "basic", "suite.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if log == nil {
		t.Fatal("expected a suite log")
	}

	if suite.Root != "tests" {
		t.Errorf("expected root tests, got %s", suite.Root)
	}
	if len(suite.Fixtures) != 1 || len(suite.Tests) != 2 {
		t.Fatalf("expected 1 fixture and 2 tests, got %d and %d", len(suite.Fixtures), len(suite.Tests))
	}

	calc := suite.Fixtures[0]
	if calc.Name != "calculator" || calc.RawScope != "function" {
		t.Errorf("unexpected fixture: %+v", calc)
	}
	if calc.Dir != "tests" {
		t.Errorf("expected the declaring dir derived from the file, got %s", calc.Dir)
	}
	if !calc.IsGenerator {
		t.Error("expected a teardown-carrying fixture to be marked as generator")
	}
}

func TestLoadScriptedFixtureBody(t *testing.T) {
	loader := NewYAMLSuiteLoader()

	path := writeManifest(t, `
root: tests
fixtures:
  - name: db
    file: tests/conftest.yaml
    scope: module
    message: db online
    teardown: true
  - name: flaky
    file: tests/conftest.yaml
    scope: function
    fail: connection refused
`)

	suite, log, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db := suite.Fixtures[0]

	value, teardown, err := db.Body(nil)
	if err != nil {
		t.Fatalf("db setup failed: %v", err)
	}
	if value != "db" {
		t.Errorf("expected the fixture name as default value, got %v", value)
	}
	if teardown == nil {
		t.Fatal("expected a teardown closure")
	}
	if err := teardown(); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}

	flaky := suite.Fixtures[1]
	if _, _, err := flaky.Body(nil); err == nil || err.Error() != "connection refused" {
		t.Errorf("expected the scripted failure, got %v", err)
	}

	events := log.Events()
	want := []string{"db online", "setup db", "teardown db", "setup flaky"}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], events[i])
		}
	}
}

func TestLoadScriptedTestBody(t *testing.T) {
	loader := NewYAMLSuiteLoader()

	path := writeManifest(t, `
root: tests
tests:
  - name: test_match
    file: tests/test_a.yaml
    params: [db]
    expect:
      db: db
  - name: test_fail
    file: tests/test_a.yaml
    fail: numbers do not add up
  - name: test_error
    file: tests/test_a.yaml
    error: filesystem on fire
  - name: test_skip
    file: tests/test_a.yaml
    skip: flaky on CI
`)

	suite, _, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	match := suite.Tests[0]
	if err := match.Body(m.Args{"db": "db"}); err != nil {
		t.Errorf("expected the expectation to pass, got %v", err)
	}

	var assertion *m.AssertionError
	if err := match.Body(m.Args{"db": "other"}); !errors.As(err, &assertion) {
		t.Errorf("expected a mismatch to be an assertion failure, got %v", err)
	}

	if err := suite.Tests[1].Body(nil); !errors.As(err, &assertion) {
		t.Errorf("expected fail to produce an assertion failure, got %v", err)
	} else if assertion.Msg != "numbers do not add up" {
		t.Errorf("unexpected assertion message: %q", assertion.Msg)
	}

	if err := suite.Tests[2].Body(nil); err == nil || errors.As(err, &assertion) {
		t.Errorf("expected error to produce a non-assertion error, got %v", err)
	}

	if suite.Tests[3].SkipReason != "flaky on CI" {
		t.Errorf("expected the skip reason carried over, got %q", suite.Tests[3].SkipReason)
	}
}

func TestLoadParametrize(t *testing.T) {
	loader := NewYAMLSuiteLoader()

	suite, _, err := loader.Load(filepath.Join("..", "..", "examples", "parametrize", "suite.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	item := suite.Tests[0]
	if len(item.Parametrize) != 1 {
		t.Fatalf("expected one parametrize spec, got %d", len(item.Parametrize))
	}

	spec := item.Parametrize[0]
	if len(spec.Names) != 2 || len(spec.Rows) != 3 {
		t.Errorf("expected 2 names and 3 rows, got %d and %d", len(spec.Names), len(spec.Rows))
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	loader := NewYAMLSuiteLoader()

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := loader.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error for a missing manifest")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeManifest(t, "root: [unclosed")
		if _, _, err := loader.Load(path); err == nil {
			t.Error("expected an error for malformed yaml")
		}
	})

	t.Run("fixture without a name", func(t *testing.T) {
		path := writeManifest(t, `
root: tests
fixtures:
  - file: tests/conftest.yaml
    scope: function
`)
		if _, _, err := loader.Load(path); err == nil {
			t.Error("expected an error for a nameless fixture")
		}
	})

	t.Run("test without a file", func(t *testing.T) {
		path := writeManifest(t, `
root: tests
tests:
  - name: test_lost
`)
		if _, _, err := loader.Load(path); err == nil {
			t.Error("expected an error for a test without a file")
		}
	})
}
