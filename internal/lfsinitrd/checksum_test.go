package lfsinitrd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyOrRecordChecksum(t *testing.T) {
	cfg := &PipelineConfig{WorkDir: t.TempDir()}
	archive := filepath.Join(t.TempDir(), "pkg-1.0.tar.gz")
	require.NoError(t, os.WriteFile(archive, []byte("archive payload"), 0o644))

	// First call records the sum.
	require.NoError(t, verifyOrRecordChecksum(cfg, "pkg-1.0.tar.gz", archive))

	sums, err := loadChecksums(cfg.ChecksumFile())
	require.NoError(t, err)
	require.Contains(t, sums, "pkg-1.0.tar.gz")

	// Second call with unchanged content verifies cleanly.
	require.NoError(t, verifyOrRecordChecksum(cfg, "pkg-1.0.tar.gz", archive))

	// Modified content is rejected.
	require.NoError(t, os.WriteFile(archive, []byte("different payload"), 0o644))
	err = verifyOrRecordChecksum(cfg, "pkg-1.0.tar.gz", archive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestHashFileStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	a, err := hashFile(path)
	require.NoError(t, err)
	b, err := hashFile(path)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "32-byte BLAKE3 sum rendered as hex")
}

func TestLoadChecksumsMissingFile(t *testing.T) {
	sums, err := loadChecksums(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, sums)
}
