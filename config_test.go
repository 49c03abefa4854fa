package kizuna

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
dataDir: /var/lib/kizuna
sessionTimeout: 30m
rotationInterval: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	options, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/kizuna", options.DataDir)
	assert.Equal(t, 30*time.Minute, options.SessionTimeout)
	assert.Equal(t, 5*time.Minute, options.RotationInterval)

	// Unset fields keep the defaults.
	assert.Equal(t, NewOptions().DisposableLifetime, options.DisposableLifetime)
	assert.Equal(t, NewOptions().PairingTimeout, options.PairingTimeout)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOptionsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: [not a string"), 0o600))

	_, err := LoadOptions(path)
	require.Error(t, err)
}
