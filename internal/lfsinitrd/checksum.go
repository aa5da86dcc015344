package lfsinitrd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"lukechampine.com/blake3"
)

// hashFile returns the BLAKE3 checksum of a file. It shells out to
// b3sum when available (SIMD, noticeably faster on big tarballs) and
// falls back to the pure-Go implementation otherwise.
func hashFile(path string) (string, error) {
	if _, err := exec.LookPath("b3sum"); err == nil {
		cmd := exec.Command("b3sum", "--no-names", path)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil {
			fields := strings.Fields(out.String())
			if len(fields) > 0 {
				return fields[0], nil
			}
		}
		debugf("b3sum failed for %s, falling back to internal BLAKE3\n", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// loadChecksums reads the workdir checksum file into a
// filename -> checksum map. A missing file yields an empty map.
func loadChecksums(path string) (map[string]string, error) {
	sums := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sums, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) >= 2 {
			// Checksum is first, filename is the rest
			sums[strings.Join(parts[1:], " ")] = parts[0]
		}
	}
	return sums, scanner.Err()
}

// verifyOrRecordChecksum pins downloaded archives. The first fetch of
// a file records its BLAKE3 sum in <workdir>/checksums; every later
// run verifies against the recorded value so a corrupted or tampered
// re-download cannot slip into the build.
func verifyOrRecordChecksum(cfg *PipelineConfig, filename, archivePath string) error {
	sums, err := loadChecksums(cfg.ChecksumFile())
	if err != nil {
		return fmt.Errorf("could not read checksum file: %v", err)
	}

	actual, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %v", archivePath, err)
	}

	if expected, ok := sums[filename]; ok {
		if expected != actual {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filename, expected, actual)
		}
		debugf("Checksum OK: %s\n", filename)
		return nil
	}

	// First sighting: record it.
	f, err := os.OpenFile(cfg.ChecksumFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open checksum file for writing: %v", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s  %s\n", actual, filename); err != nil {
		return fmt.Errorf("could not record checksum: %v", err)
	}
	stepf("Recorded checksum for %s", filename)
	return nil
}
