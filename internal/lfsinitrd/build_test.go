package lfsinitrd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyboxConfigSourcePrefersDeployed(t *testing.T) {
	workdir := t.TempDir()
	caller := filepath.Join(t.TempDir(), "busybox.config")
	require.NoError(t, os.WriteFile(caller, []byte("CONFIG_STATIC=y\n"), 0o644))

	cfg := &PipelineConfig{WorkDir: workdir, FakeRoot: true, BusyboxConfig: caller}

	// Nothing deployed yet: the caller's file is used.
	got, err := busyboxConfigSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, caller, got)

	// After a deploy the canonical copy wins.
	deployed, err := resolvePath(busyboxConfPath, cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(deployed, []byte("CONFIG_STATIC=y\n"), 0o644))

	got, err = busyboxConfigSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, deployed, got)
}

func TestBusyboxConfigSourceMissingEverywhere(t *testing.T) {
	cfg := &PipelineConfig{
		WorkDir:       t.TempDir(),
		FakeRoot:      true,
		BusyboxConfig: "/nonexistent/busybox.config",
	}

	_, err := busyboxConfigSource(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busybox config not found")
}

func TestBuildEnvSetsMakeflags(t *testing.T) {
	cfg := &PipelineConfig{Jobs: 6}
	env := buildEnv(cfg)
	assert.Contains(t, env, "MAKEFLAGS=-j6")
}

func TestBuildComponentMissingSourceTree(t *testing.T) {
	cfg := &PipelineConfig{WorkDir: t.TempDir(), Jobs: 1, FakeRoot: true}
	comp, ok := findComponent("busybox")
	require.True(t, ok)

	err := buildComponent(comp, cfg, nil, cfg.SandboxRoot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory")
}
