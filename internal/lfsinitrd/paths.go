package lfsinitrd

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolvePath maps a logical absolute path to the path a stage should
// actually operate on. In normal mode the logical path is returned
// unchanged. In fake-root mode it is rerooted under
// <workdir>/fakeroot and the parent directories of the result are
// created. Every filesystem mutation in the pipeline goes through
// here; no stage computes a destination on its own.
func resolvePath(logical string, cfg *PipelineConfig) (string, error) {
	if !cfg.FakeRoot {
		return logical, nil
	}

	actual := filepath.Join(cfg.SandboxRoot(), logical)
	if err := os.MkdirAll(filepath.Dir(actual), 0o755); err != nil {
		return "", fmt.Errorf("failed to create sandbox directory for %s: %w", logical, err)
	}
	return actual, nil
}

// installRoot returns the root the build stage installs into:
// the sandbox root in fake mode, / otherwise.
func installRoot(cfg *PipelineConfig) (string, error) {
	if !cfg.FakeRoot {
		return "/", nil
	}
	root := cfg.SandboxRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create sandbox root %s: %w", root, err)
	}
	return root, nil
}
