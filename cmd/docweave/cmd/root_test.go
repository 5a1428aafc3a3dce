package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docweave/internal/testutil"
	"github.com/MeKo-Tech/docweave/internal/version"
)

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "docweave", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"extract", "assemble", "serve", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandHelp(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "reading order")

	out, _, err = execute(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)

	out, _, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docweave "+version.Version)
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "--invalid-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootCommandInvalidLogLevel(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "version", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestVerboseLogging(t *testing.T) {
	dir := isolate(t)
	writeMapImage(t, dir+"/page.png", testutil.TwoWords...)

	_, stderr, err := execute(t, "", "extract", "page.png", "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"level":"DEBUG"`)

	_, stderr, err = execute(t, "", "extract", "page.png")
	require.NoError(t, err)
	assert.NotContains(t, stderr, `"level":"DEBUG"`)
}
