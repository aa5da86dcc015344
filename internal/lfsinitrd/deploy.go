package lfsinitrd

import (
	"fmt"
	"os"
)

// Canonical installed locations of the caller-supplied configuration.
const (
	mkinitcpioConfPath = "/etc/mkinitcpio.conf"
	busyboxConfPath    = "/etc/busybox.config"
)

// deployConfigs installs the caller-supplied configuration files at
// their canonical paths, overwriting what is there. The previous
// content is backed up once to <path>.bak.
func deployConfigs(cfg *PipelineConfig) error {
	if err := deployOne(cfg.MkinitcpioConfig, mkinitcpioConfPath, cfg); err != nil {
		return err
	}
	return deployOne(cfg.BusyboxConfig, busyboxConfPath, cfg)
}

func deployOne(src, canonical string, cfg *PipelineConfig) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("configuration file not found: %s", src)
	}

	dest, err := resolvePath(canonical, cfg)
	if err != nil {
		return err
	}

	if fileExists(dest) && !fileExists(dest+".bak") {
		if err := backupOnce(dest); err != nil {
			return fmt.Errorf("failed to back up %s: %w", dest, err)
		}
		stepf("Existing %s backed up to %s.bak", canonical, canonical)
	}

	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("failed to install %s: %w", canonical, err)
	}
	stepf("Installed %s from %s", canonical, src)
	return nil
}
