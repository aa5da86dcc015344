package lfsinitrd

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// writeTarGz builds a small gzipped tarball whose entries all live
// under a single top-level directory, like upstream release tarballs.
func writeTarGz(t *testing.T, path, topDir string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := pgzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     topDir + "/",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     topDir + "/" + name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
}

func TestExtractTarStripsTopLevelDir(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "pkg-1.0.tar.gz")
	writeTarGz(t, archive, "pkg-1.0", map[string]string{
		"configure":  "#!/bin/sh\n",
		"src/main.c": "int main(void) { return 0; }\n",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, extractTar(archive, dest))

	// The pkg-1.0/ wrapper is stripped; contents land at the root.
	assert.FileExists(t, filepath.Join(dest, "configure"))
	assert.FileExists(t, filepath.Join(dest, "src/main.c"))
	assert.NoDirExists(t, filepath.Join(dest, "pkg-1.0"))

	got, err := os.ReadFile(filepath.Join(dest, "src/main.c"))
	require.NoError(t, err)
	assert.Equal(t, "int main(void) { return 0; }\n", string(got))
}

func TestExtractTarUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "pkg.rar")
	require.NoError(t, os.WriteFile(archive, []byte("not a tarball"), 0o644))

	err := extractTar(archive, dir)
	require.Error(t, err)
}

func TestCompressXZRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "build-log.txt")
	require.NoError(t, os.WriteFile(src, []byte("make: all done\n"), 0o644))

	dest := filepath.Join(dir, "build-log.txt.xz")
	require.NoError(t, compressXZ(src, dest))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	r, err := xz.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, "make: all done\n", string(data))
}
