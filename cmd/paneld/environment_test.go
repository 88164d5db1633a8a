package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEnvironmentSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, "--config", path, "environment", "setup",
		"--url", "https://panel.example.com", "--timezone", "UTC", "--author", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Environment written to")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://panel.example.com", cfg.App.URL)
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, "ops@example.com", cfg.App.ServiceAuthor)
	assert.Equal(t, "memory", cfg.Cache.Driver)

	// A second run only touches the flags it is given.
	_, err = runCLI(t, "--config", path, "environment", "setup", "--author", "admin@example.com")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://panel.example.com", cfg.App.URL)
	assert.Equal(t, "admin@example.com", cfg.App.ServiceAuthor)
}

func TestEnvironmentSetupRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "Unknown timezone", args: []string{"--timezone", "Mars/Olympus_Mons"}},
		{name: "Unknown cache driver", args: []string{"--cache", "floppy"}},
		{name: "Memcached without address", args: []string{"--cache", "memcached"}},
		{name: "Unreachable redis", args: []string{"--cache", "redis", "--redis-host", "127.0.0.1", "--redis-port", "1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			args := append([]string{"--config", path, "environment", "setup"}, tc.args...)
			_, err := runCLI(t, args...)
			assert.Error(t, err)
			assert.NoFileExists(t, path)
		})
	}
}
