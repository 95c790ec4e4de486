package cli_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/forummark/internal/cli"
	"github.com/yaklabco/forummark/pkg/config"
)

func TestInitCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forummark.yml")

	_, _, err := execute(t, "", "init", "--output", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := config.FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxDepth, cfg.Markup.MaxDepth)

	_, _, err = execute(t, "", "init", "--output", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cli.ErrUsage))

	_, _, err = execute(t, "", "init", "--output", path, "--force")
	require.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()

	t.Run("env", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "", "config", "--env")
		require.NoError(t, err)
		assert.Contains(t, stdout, "FORUMMARK_RESOLVE")
		assert.Contains(t, stdout, "FORUMMARK_FORMULA_URL")
	})

	t.Run("resolved", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cfg.yml")
		require.NoError(t, os.WriteFile(path, []byte("output:\n  width: 72\n"), 0o644))

		stdout, _, err := execute(t, "", "config", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "width: 72")
		assert.Contains(t, stdout, "formula_url:")
	})
}
