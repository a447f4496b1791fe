package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	req := require.New(t)

	v, err := Load(t.TempDir(), "config")
	req.NoError(err)
	req.NotNil(v)

	t.Setenv("SERVER_PORT", "9090")
	req.Equal(9090, v.GetInt("server.port"))
}

func TestLoadReadsYAMLFile(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	yaml := []byte("server:\n  port: 9999\n")
	req.NoError(os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	v, err := Load(dir, "config")
	req.NoError(err)
	req.Equal(9999, v.GetInt("server.port"))
}
