package lfsinitrd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allSkipConfig(t *testing.T) *PipelineConfig {
	t.Helper()
	busybox, mkinitcpio := writeTestConfigs(t, t.TempDir())

	cfg := &PipelineConfig{
		WorkDir:          t.TempDir(),
		Jobs:             1,
		BusyboxConfig:    busybox,
		MkinitcpioConfig: mkinitcpio,
		SkipDownload:     true,
		SkipBuild:        true,
		SkipInitrd:       true,
		FakeRoot:         true,
	}
	for _, comp := range Components() {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.BuildDir(), comp.FullName()), 0o755))
	}
	return cfg
}

func TestRunAllSkipsOnlyDeploysConfig(t *testing.T) {
	cfg := allSkipConfig(t)

	// No stage may shell out when everything but the config deploy is
	// skipped; an empty PATH turns any stray invocation into a failure.
	t.Setenv("PATH", "")

	ex := NewExecutor(context.Background())
	require.NoError(t, Run(cfg, ex))

	etc := filepath.Join(cfg.SandboxRoot(), "etc")
	assert.FileExists(t, filepath.Join(etc, "mkinitcpio.conf"))
	assert.FileExists(t, filepath.Join(etc, "busybox.config"))

	assert.NoFileExists(t, filepath.Join(etc, "fstab"))
	assert.NoDirExists(t, filepath.Join(cfg.SandboxRoot(), "boot"))
}

func TestRunFailsOnMissingConfig(t *testing.T) {
	cfg := allSkipConfig(t)
	cfg.MkinitcpioConfig = "/nonexistent/mkinitcpio.conf"

	err := Run(cfg, NewExecutor(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration deploy")
}

func TestRunNamesFailingStage(t *testing.T) {
	cfg := allSkipConfig(t)
	cfg.SkipInitrd = false

	// No kernels installed in the sandbox, so discovery must abort the
	// run before the initramfs stage touches anything.
	err := Run(cfg, NewExecutor(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel discovery")
	assert.ErrorIs(t, err, errNoKernel)
}

func TestRunFetchVerificationFailureNamesStage(t *testing.T) {
	busybox, mkinitcpio := writeTestConfigs(t, t.TempDir())
	cfg := &PipelineConfig{
		WorkDir:          t.TempDir(),
		BusyboxConfig:    busybox,
		MkinitcpioConfig: mkinitcpio,
		SkipDownload:     true,
		SkipBuild:        true,
		SkipInitrd:       true,
		FakeRoot:         true,
	}

	err := Run(cfg, NewExecutor(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch stage")
}
