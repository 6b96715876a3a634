package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, expected := range []string{"build", "watch", "config", "version"} {
		assert.True(t, names[expected], "command %q should be registered", expected)
	}
}

func TestBuildCommandFlags(t *testing.T) {
	for _, name := range []string{"entry", "output", "output-dir", "data"} {
		require.NotNil(t, buildCmd.Flags().Lookup(name), "flag %q should exist", name)
	}
}

func TestWatchCommandFlags(t *testing.T) {
	for _, name := range []string{"debounce", "paths"} {
		require.NotNil(t, watchCmd.Flags().Lookup(name), "flag %q should exist", name)
	}
}

func TestRootPersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-format"))
}
