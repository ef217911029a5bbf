package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "bistro", root.Use)

	for _, path := range [][]string{
		{"start"},
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"migrate", "status"},
		{"seed"},
		{"worker", "run"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.NotEqual(t, root, cmd, path)
	}
}

func TestMigrateDownFlags(t *testing.T) {
	cmd, _, err := NewRootCommand().Find([]string{"migrate", "down"})
	require.NoError(t, err)

	steps, err := cmd.Flags().GetInt("steps")
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	all, err := cmd.Flags().GetBool("all")
	require.NoError(t, err)
	assert.False(t, all)
}
