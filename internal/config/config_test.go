package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, int64(50_000_000), cfg.MaxUploadBytes)
	assert.Equal(t, "/uploads", cfg.UploadURLPrefix)
	assert.True(t, cfg.ClearUploadsOnStart)
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: debug\nport: 9000\nupload_dir: /tmp/share\nping_period: 10s\n"), 0o644))
	t.Setenv("SHARE_PORT", "9100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/share", cfg.UploadDir)
	assert.Equal(t, 10*time.Second, cfg.PingPeriod)
}
