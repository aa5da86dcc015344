package lfsinitrd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// updateBootloader regenerates grub.cfg so the new initramfs is picked
// up. A missing grub-mkconfig is the one non-fatal condition in the
// pipeline: GRUB may legitimately be installed and configured later,
// per the LFS/BLFS book.
func updateBootloader(cfg *PipelineConfig, ex *Executor) error {
	if _, err := exec.LookPath("grub-mkconfig"); err != nil {
		cPrintln(colWarn, "grub-mkconfig not found; skipping bootloader refresh. Configure GRUB per the LFS/BLFS book.")
		return nil
	}

	grubCfg, err := resolvePath("/boot/grub/grub.cfg", cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(grubCfg), 0o755); err != nil {
		return fmt.Errorf("failed to create grub directory: %w", err)
	}
	if err := backupOnce(grubCfg); err != nil {
		return fmt.Errorf("failed to back up grub.cfg: %w", err)
	}

	stepf("Regenerating %s", grubCfg)
	if err := ex.Run(exec.Command("grub-mkconfig", "-o", grubCfg)); err != nil {
		return fmt.Errorf("grub-mkconfig failed: %w", err)
	}
	return nil
}
