package lfsinitrd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
)

func newHttpClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Increase TLS handshake timeout to handle slow/problematic sites like busybox.net
	// Default is 10s, we increase it to 30s.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// applyKernelOrgMirror checks if a URL points at the canonical
// kernel.org mirror network and replaces the prefix with the
// user-configured mirror if one is set. It returns the (potentially
// modified) URL.
func applyKernelOrgMirror(originalURL string) string {
	if mirrorURL != "" && strings.HasPrefix(originalURL, kernelOrgURL) {
		return strings.Replace(originalURL, kernelOrgURL, mirrorURL, 1)
	}
	return originalURL
}

// downloadFile downloads a URL into destFile. A flock on
// destFile+".lock" serializes against any concurrent run sharing the
// same workdir. Tries curl, then wget, then the native HTTP client.
func downloadFile(originalURL, finalURL, destFile string) error {
	// If a mirror is being used for this download, print the info message exactly once.
	if originalURL != finalURL {
		mirrorMessageOnce.Do(func() {
			stepf("Using kernel.org mirror: %s", mirrorURL)
		})
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", destFile, err)
	}
	lockPath := destFile + ".lock"

	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	// Acquire an exclusive lock. This blocks if another process is downloading.
	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// DOUBLE CHECK: now that we hold the lock, the file may have been
	// completed by whoever held it before us.
	if _, err := os.Stat(destFile); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", destFile)
		_ = os.Remove(lockPath)
		return nil
	}

	// Ensure lock file is removed on successful download
	defer func() {
		if _, err := os.Stat(destFile); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", finalURL, destFile)

	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		cmd := exec.Command("curl", "-L", "--fail", "-#", "-o", destFile, finalURL)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with curl.\n")
			return nil
		}
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.Command("wget", "-nv", "-O", destFile, finalURL)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with wget.\n")
			return nil
		}
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native Go HTTP client ---
	out, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destFile, err)
	}
	defer out.Close()

	resp, err := newHttpClient().Get(finalURL)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(destFile))
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}

	debugf("Download successful with native Go HTTP client.\n")
	return nil
}

// fetchStage downloads and unpacks the three component source
// archives. With -skip-download it only verifies that the unpacked
// trees are present, so a resumed run fails early instead of half-way
// into the build.
func fetchStage(cfg *PipelineConfig) error {
	if cfg.SkipDownload {
		stepf("Skipping source downloads (verification only)")
		for _, comp := range Components() {
			srcDir := filepath.Join(cfg.BuildDir(), comp.FullName())
			if !dirExists(srcDir) {
				return fmt.Errorf("expected source directory %s is missing; drop -skip-download to fetch sources", srcDir)
			}
		}
		return nil
	}

	if err := os.MkdirAll(cfg.SourcesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create sources dir: %w", err)
	}

	for _, comp := range Components() {
		archivePath := filepath.Join(cfg.SourcesDir(), comp.Filename())

		if fileExists(archivePath) {
			debugf("Already in cache: %s\n", archivePath)
		} else {
			stepf("Fetching source: %s", comp.Filename())
			finalURL := applyKernelOrgMirror(comp.URL)
			if err := downloadFile(comp.URL, finalURL, archivePath); err != nil {
				// Clean up partial file on failure to prevent corrupt cache
				os.Remove(archivePath)
				return fmt.Errorf("failed to download %s: %v", finalURL, err)
			}
		}

		if err := verifyOrRecordChecksum(cfg, comp.Filename(), archivePath); err != nil {
			return err
		}

		srcDir := filepath.Join(cfg.BuildDir(), comp.FullName())
		if dirExists(srcDir) {
			debugf("Already unpacked: %s\n", srcDir)
			continue
		}
		stepf("Extracting %s", comp.Filename())
		if err := os.MkdirAll(srcDir, 0o755); err != nil {
			return fmt.Errorf("failed to create source dir %s: %w", srcDir, err)
		}
		if err := extractTar(archivePath, srcDir); err != nil {
			// Remove the half-extracted tree so a re-run starts clean.
			os.RemoveAll(srcDir)
			return fmt.Errorf("failed to extract %s: %w", comp.Filename(), err)
		}
	}

	return nil
}
