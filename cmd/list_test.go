package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_BasicSuite(t *testing.T) {
	output, err := executeCommand(t, "list", exampleSuite("basic"))
	require.NoError(t, err)

	assert.Contains(t, output, "tests/test_math.yaml::test_add")
	assert.Contains(t, output, "tests/test_math.yaml::test_sub")
	assert.Contains(t, output, "2 invocation(s) from 2 test(s), 1 fixture(s)")
}

func TestListCmd_ParametrizeSuiteExpandsRows(t *testing.T) {
	output, err := executeCommand(t, "list", exampleSuite("parametrize"))
	require.NoError(t, err)

	assert.Contains(t, output, "tests/test_pairs.yaml::test_pairs[1-2]")
	assert.Contains(t, output, "tests/test_pairs.yaml::test_pairs[3-4]")
	assert.Contains(t, output, "tests/test_pairs.yaml::test_pairs[5-6]")
	assert.Contains(t, output, "3 invocation(s) from 1 test(s), 2 fixture(s)")
}

func TestListCmd_MissingManifest(t *testing.T) {
	_, err := executeCommand(t, "list", "no-such-suite.yaml")
	require.Error(t, err)
}
