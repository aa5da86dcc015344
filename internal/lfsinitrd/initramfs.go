package lfsinitrd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// generateInitramfs invokes mkinitcpio for the discovered kernel,
// writing the image to <root>/boot/initrd.img-<version>.
func generateInitramfs(cfg *PipelineConfig, ex *Executor, kernel string) error {
	mkinitcpio := "mkinitcpio"
	if cfg.FakeRoot {
		// Prefer the generator installed into the sandbox during the
		// build stage, falling back to the host's.
		staged := filepath.Join(cfg.SandboxRoot(), "usr/bin/mkinitcpio")
		if fileExists(staged) {
			mkinitcpio = staged
		}
	}
	if _, err := exec.LookPath(mkinitcpio); err != nil {
		return fmt.Errorf("mkinitcpio not found on PATH: %w", err)
	}

	// /boot being mounted is the caller's responsibility on a live
	// system; catch the obvious case before mkinitcpio does.
	bootDir, err := resolvePath("/boot", cfg)
	if err != nil {
		return err
	}
	if cfg.FakeRoot {
		if err := os.MkdirAll(bootDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", bootDir, err)
		}
	} else if !dirExists(bootDir) {
		return fmt.Errorf("/boot does not exist or is not mounted")
	}

	imagePath := filepath.Join(bootDir, "initrd.img-"+kernel)
	confPath, err := resolvePath(mkinitcpioConfPath, cfg)
	if err != nil {
		return err
	}

	stepf("Generating initramfs for kernel %s", kernel)
	cmd := exec.Command(mkinitcpio, "-g", imagePath, "-k", kernel, "-c", confPath)
	if cfg.FakeRoot {
		// Put the sandbox bin dirs first so mkinitcpio picks up the
		// freshly built busybox and util-linux tools.
		env := os.Environ()
		fakePath := filepath.Join(cfg.SandboxRoot(), "usr/bin")
		env = append(env, "PATH="+fakePath+":"+os.Getenv("PATH"))
		cmd.Env = env
	}
	if err := ex.Run(cmd); err != nil {
		return fmt.Errorf("mkinitcpio failed: %w", err)
	}

	stepf("Generated %s", imagePath)
	return nil
}
