package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"run", "batch", "serve", "jobs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "resolver-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"name", "domain", "city", "state", "phone", "address", "category", "context"} {
		flag := runCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "run should have --%s flag", flagName)
	}
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "batch command should have --file flag")

	limit := batchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit, "batch command should have --limit flag")
	assert.Equal(t, "0", limit.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestJobsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range jobsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
}

func TestJobsListCommand_Flags(t *testing.T) {
	limit := jobsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)

	status := jobsListCmd.Flags().Lookup("status")
	require.NotNil(t, status)
}

func TestExitError(t *testing.T) {
	var err error = &exitError{code: 3, msg: "batch failure rate 60% exceeds threshold"}
	assert.Equal(t, "batch failure rate 60% exceeds threshold", err.Error())

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 3, ee.code)
}
