package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmd_BasicSuite(t *testing.T) {
	reports := useTempDirs(t)

	output, err := executeCommand(t, "run", exampleSuite("basic"))
	require.NoError(t, err)

	assert.Contains(t, output, "Collected 2 test(s) and 1 fixture(s)")
	assert.Contains(t, output, "tests/test_math.yaml")
	assert.Contains(t, output, "OK")

	// The run persists its outcome log and summary.
	_, err = os.Stat(filepath.Join(reports, "outcomes.gob"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(reports, "summary.yaml"))
	assert.NoError(t, err)
}

func TestRunCmd_ScopesSuiteInParallel(t *testing.T) {
	useTempDirs(t)

	output, err := executeCommand(t, "run", "--parallel", "2", exampleSuite("scopes"))
	require.NoError(t, err)

	assert.Contains(t, output, "OK")
}

func TestRunCmd_ParametrizeSuite(t *testing.T) {
	useTempDirs(t)

	output, err := executeCommand(t, "run", exampleSuite("parametrize"))
	require.NoError(t, err)

	// 3 rows expand to 3 invocations.
	assert.Contains(t, output, "Collected 3 test(s)")
	assert.Contains(t, output, "test_pairs[1-2]")
	assert.Contains(t, output, "OK")
}

func TestRunCmd_InvalidScopeSuiteFails(t *testing.T) {
	useTempDirs(t)

	output, err := executeCommand(t, "run", exampleSuite("invalid"))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "run failed")
	assert.Contains(t, output, "invalid-fixture")
	assert.Contains(t, output, "fixture-not-found")
	assert.Contains(t, output, "FAILED")
}

func TestRunCmd_NestedVisibilitySuiteFails(t *testing.T) {
	useTempDirs(t)

	// tests/other/test_other.yaml asks for a fixture declared under
	// tests/inner/, which is not visible from a sibling subtree.
	output, err := executeCommand(t, "run", exampleSuite("nested"))
	require.Error(t, err)

	assert.Contains(t, output, "fixture-not-found")
}

func TestRunCmd_RequiresManifestArgument(t *testing.T) {
	_, err := executeCommand(t, "run")
	require.Error(t, err)
}

func TestRunCmd_MissingManifest(t *testing.T) {
	useTempDirs(t)

	_, err := executeCommand(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suite manifest")
}

func TestReportCmd_AfterRun(t *testing.T) {
	useTempDirs(t)

	_, err := executeCommand(t, "run", exampleSuite("basic"))
	require.NoError(t, err)

	output, err := executeCommand(t, "report")
	require.NoError(t, err)

	assert.Contains(t, output, "passed")
	assert.Contains(t, output, "2 outcome(s)")
}

func TestReportCmd_WithoutSavedRun(t *testing.T) {
	useTempDirs(t)

	_, err := executeCommand(t, "report")
	require.Error(t, err)
}
