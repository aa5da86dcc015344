package lfsinitrd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lfsinitrd.conf")
	content := `
# comment line
LFSINITRD_WORKDIR=/var/tmp/initrd
LFSINITRD_JOBS = 4
LFSINITRD_MIRROR="https://mirror.example.org/pub"
not-a-key-value-line
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp/initrd", cfg.Values["LFSINITRD_WORKDIR"])
	assert.Equal(t, "4", cfg.Values["LFSINITRD_JOBS"])
	// quotes are stripped
	assert.Equal(t, "https://mirror.example.org/pub", cfg.Values["LFSINITRD_MIRROR"])
}

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lfs-initrd", cfg.DefaultWorkDir())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lfsinitrd.conf")
	require.NoError(t, os.WriteFile(path, []byte("LFSINITRD_WORKDIR=/from-file\n"), 0o644))

	t.Setenv("LFSINITRD_WORKDIR", "/from-env")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/from-env", cfg.DefaultWorkDir())
}

func TestDefaultJobs(t *testing.T) {
	cfg := &Config{Values: map[string]string{}}
	assert.Greater(t, cfg.DefaultJobs(), 0)

	cfg.Values["LFSINITRD_JOBS"] = "7"
	assert.Equal(t, 7, cfg.DefaultJobs())

	// Nonsense values fall back to NumCPU
	cfg.Values["LFSINITRD_JOBS"] = "zero"
	assert.Greater(t, cfg.DefaultJobs(), 0)

	cfg.Values["LFSINITRD_JOBS"] = "-2"
	assert.Greater(t, cfg.DefaultJobs(), 0)
}

func TestPipelineConfigLayout(t *testing.T) {
	pc := &PipelineConfig{WorkDir: "/work"}
	assert.Equal(t, "/work/sources", pc.SourcesDir())
	assert.Equal(t, "/work/build", pc.BuildDir())
	assert.Equal(t, "/work/logs", pc.LogDir())
	assert.Equal(t, "/work/checksums", pc.ChecksumFile())
	assert.Equal(t, "/work/fakeroot", pc.SandboxRoot())
}
