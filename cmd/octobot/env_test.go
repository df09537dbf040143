package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEnvFileLoadsFirstExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OCTOBOT_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("OCTOBOT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("OCTOBOT_TEST_VALUE"))

	got, ok := findEnvFile([]string{filepath.Join(dir, "missing.env"), path})

	require.True(t, ok)
	assert.Equal(t, path, got)
	assert.Equal(t, "from-file", os.Getenv("OCTOBOT_TEST_VALUE"))
}

func TestFindEnvFileKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OCTOBOT_TEST_KEEP=from-file\n"), 0o600))
	t.Setenv("OCTOBOT_TEST_KEEP", "from-env")

	_, ok := findEnvFile([]string{path})

	require.True(t, ok)
	assert.Equal(t, "from-env", os.Getenv("OCTOBOT_TEST_KEEP"))
}

func TestFindEnvFileNoCandidates(t *testing.T) {
	_, ok := findEnvFile([]string{filepath.Join(t.TempDir(), ".env")})
	assert.False(t, ok)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "report"})
}
