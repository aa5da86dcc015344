package lfsinitrd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathRealMode(t *testing.T) {
	cfg := &PipelineConfig{WorkDir: t.TempDir(), FakeRoot: false}

	for _, p := range []string{"/etc/fstab", "/boot/initrd.img-6.6.1", "/lib/modules"} {
		got, err := resolvePath(p, cfg)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestResolvePathFakeRoot(t *testing.T) {
	workdir := t.TempDir()
	cfg := &PipelineConfig{WorkDir: workdir, FakeRoot: true}

	got, err := resolvePath("/etc/mkinitcpio.conf", cfg)
	require.NoError(t, err)

	sandbox := filepath.Join(workdir, "fakeroot")
	assert.Equal(t, filepath.Join(sandbox, "etc/mkinitcpio.conf"), got)
	assert.True(t, strings.HasPrefix(got, sandbox+string(filepath.Separator)),
		"resolved path must stay under the sandbox root")

	// Parent directories are created so the caller can write directly.
	assert.DirExists(t, filepath.Join(sandbox, "etc"))
}

func TestResolvePathFakeRootDeepPath(t *testing.T) {
	workdir := t.TempDir()
	cfg := &PipelineConfig{WorkDir: workdir, FakeRoot: true}

	got, err := resolvePath("/boot/grub/grub.cfg", cfg)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(got))
	assert.True(t, strings.HasPrefix(got, cfg.SandboxRoot()))
}

func TestInstallRoot(t *testing.T) {
	workdir := t.TempDir()

	root, err := installRoot(&PipelineConfig{WorkDir: workdir, FakeRoot: false})
	require.NoError(t, err)
	assert.Equal(t, "/", root)

	root, err = installRoot(&PipelineConfig{WorkDir: workdir, FakeRoot: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workdir, "fakeroot"), root)
	assert.DirExists(t, root)
}
