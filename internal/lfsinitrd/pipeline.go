package lfsinitrd

import "fmt"

// Run executes the pipeline stages in their fixed order, threading the
// immutable config through each. The first failing stage aborts the
// run; its error names the stage. Nothing is rolled back: the workdir
// and any partial installs are left for a re-run with skip flags.
func Run(cfg *PipelineConfig, ex *Executor) error {
	stepf("Preparing package sources (download & extract)")
	if err := fetchStage(cfg); err != nil {
		return fmt.Errorf("fetch stage: %w", err)
	}

	if cfg.SkipBuild {
		stepf("Package build skipped")
	} else {
		stepf("Building required packages")
		if err := buildStage(cfg, ex); err != nil {
			return fmt.Errorf("build stage: %w", err)
		}
	}

	stepf("Installing configuration files")
	if err := deployConfigs(cfg); err != nil {
		return fmt.Errorf("configuration deploy: %w", err)
	}

	// -skip-initrd covers all boot-configuration stages: image
	// generation, the bootloader refresh and the fstab rewrite.
	if cfg.SkipInitrd {
		stepf("Initramfs, bootloader and fstab stages skipped")
		return nil
	}

	kernel, err := detectKernelVersion(cfg)
	if err != nil {
		return fmt.Errorf("kernel discovery: %w", err)
	}

	if err := generateInitramfs(cfg, ex, kernel); err != nil {
		return fmt.Errorf("initramfs stage: %w", err)
	}

	if err := updateBootloader(cfg, ex); err != nil {
		return fmt.Errorf("bootloader update: %w", err)
	}

	stepf("Regenerating fstab entries")
	if err := rewriteFstab(cfg, ex); err != nil {
		return fmt.Errorf("fstab rewrite: %w", err)
	}

	return nil
}
