package lfsinitrd

import (
	"errors"
	"fmt"
	"os"
)

// The initramfs image name and the mkinitcpio invocation both need an
// unambiguous kernel version, so exactly one installed kernel is
// required.
var (
	errNoKernel        = errors.New("no installed kernel found")
	errAmbiguousKernel = errors.New("ambiguous kernel version")
)

// detectKernelVersion returns the version string of the single kernel
// whose modules are installed under <root>/lib/modules.
func detectKernelVersion(cfg *PipelineConfig) (string, error) {
	modulesDir, err := resolvePath("/lib/modules", cfg)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s does not exist", errNoKernel, modulesDir)
		}
		return "", fmt.Errorf("failed to read %s: %w", modulesDir, err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			candidates = append(candidates, e.Name())
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w under %s", errNoKernel, modulesDir)
	case 1:
		debugf("Detected kernel version %s from %s\n", candidates[0], modulesDir)
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: found %v under %s", errAmbiguousKernel, candidates, modulesDir)
	}
}
