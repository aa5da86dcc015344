package lfsinitrd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var errLibarchiveMissing = errors.New("libarchive not found by pkg-config; install it before building mkinitcpio")

// buildStage configures, compiles and installs the three components in
// dependency order. Any non-zero exit aborts immediately; the workdir
// keeps object files and partial installs so the operator can fix the
// problem and re-run with -skip-download.
func buildStage(cfg *PipelineConfig, ex *Executor) error {
	destdir, err := installRoot(cfg)
	if err != nil {
		return err
	}

	for _, comp := range Components() {
		stepf("Building %s", comp.FullName())
		if err := buildComponent(comp, cfg, ex, destdir); err != nil {
			return fmt.Errorf("%s: %w", comp.Name, err)
		}
	}
	return nil
}

func buildComponent(comp ComponentSpec, cfg *PipelineConfig, ex *Executor, destdir string) error {
	srcDir := filepath.Join(cfg.BuildDir(), comp.FullName())
	if !dirExists(srcDir) {
		return fmt.Errorf("source directory %s is missing", srcDir)
	}

	logDir := filepath.Join(cfg.LogDir(), comp.Name)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	logPath := filepath.Join(logDir, "build-log.txt")
	// A fresh log replaces any compressed one from an earlier run.
	_ = os.Remove(logPath + ".xz")

	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	var out io.Writer = logFile
	if Verbose || Debug {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	env := buildEnv(cfg)

	var buildErr error
	switch comp.Name {
	case "util-linux":
		buildErr = buildUtilLinux(cfg, ex, srcDir, destdir, env, out)
	case "busybox":
		buildErr = buildBusybox(cfg, ex, srcDir, destdir, env, out)
	case "mkinitcpio":
		buildErr = buildMkinitcpio(cfg, ex, srcDir, destdir, env, out)
	default:
		buildErr = fmt.Errorf("no build recipe for component %s", comp.Name)
	}
	logFile.Close()

	if buildErr != nil {
		return fmt.Errorf("build failed (log: %s): %w", logPath, buildErr)
	}

	// Successful logs are kept compressed; failed ones stay plain for
	// quick inspection.
	if err := compressXZ(logPath, logPath+".xz"); err == nil {
		_ = os.Remove(logPath)
	} else {
		debugf("Failed to compress build log %s: %v\n", logPath, err)
	}
	return nil
}

// buildEnv returns the process environment plus the job-bounded
// MAKEFLAGS every recipe inherits.
func buildEnv(cfg *PipelineConfig) []string {
	env := os.Environ()
	env = append(env, fmt.Sprintf("MAKEFLAGS=-j%d", cfg.Jobs))
	return env
}

// runStep executes one configure/compile/install step, echoing the
// command into the build log first.
func runStep(ex *Executor, dir string, env []string, out io.Writer, name string, args ...string) error {
	fmt.Fprintf(out, "[CMD] %s %s\n", name, strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out
	if err := ex.Run(cmd); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func buildUtilLinux(cfg *PipelineConfig, ex *Executor, srcDir, destdir string, env []string, out io.Writer) error {
	// Out-of-tree build, as the util-linux docs recommend.
	buildDir := filepath.Join(srcDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("failed to create build dir: %w", err)
	}

	configureArgs := []string{
		"--prefix=/usr",
		"--sysconfdir=/etc",
		"--localstatedir=/var",
		"--enable-uuidd",
		"--disable-makeinstall-chown",
		"--disable-chfn-chsh-password",
		"--with-systemd",
		"--disable-static",
		"--enable-write",
		"--enable-chfn-chsh",
		"--with-systemdsystemunitdir=/usr/lib/systemd/system",
	}
	if err := runStep(ex, buildDir, env, out, filepath.Join(srcDir, "configure"), configureArgs...); err != nil {
		return err
	}
	if err := runStep(ex, buildDir, env, out, "make", fmt.Sprintf("-j%d", cfg.Jobs)); err != nil {
		return err
	}

	installArgs := []string{"install"}
	if destdir != "/" {
		installArgs = append(installArgs, "DESTDIR="+destdir)
	}
	return runStep(ex, buildDir, env, out, "make", installArgs...)
}

func buildBusybox(cfg *PipelineConfig, ex *Executor, srcDir, destdir string, env []string, out io.Writer) error {
	configFile, err := busyboxConfigSource(cfg)
	if err != nil {
		return err
	}

	if err := runStep(ex, srcDir, env, out, "make", "distclean"); err != nil {
		return err
	}
	if err := copyFile(configFile, filepath.Join(srcDir, ".config")); err != nil {
		return fmt.Errorf("failed to install busybox .config: %w", err)
	}
	if err := runStep(ex, srcDir, env, out, "make", fmt.Sprintf("-j%d", cfg.Jobs)); err != nil {
		return err
	}

	configPrefix := "/usr"
	if destdir != "/" {
		configPrefix = filepath.Join(destdir, "usr")
	}
	return runStep(ex, srcDir, env, out, "make", "CONFIG_PREFIX="+configPrefix, "install")
}

// busyboxConfigSource prefers the deployed /etc/busybox.config when a
// previous run already installed it, so resumed builds use exactly
// what the deployer put in place. First runs use the caller's file.
func busyboxConfigSource(cfg *PipelineConfig) (string, error) {
	deployed, err := resolvePath(busyboxConfPath, cfg)
	if err == nil && fileExists(deployed) {
		return deployed, nil
	}
	if !fileExists(cfg.BusyboxConfig) {
		return "", fmt.Errorf("busybox config not found: %s", cfg.BusyboxConfig)
	}
	return cfg.BusyboxConfig, nil
}

func buildMkinitcpio(cfg *PipelineConfig, ex *Executor, srcDir, destdir string, env []string, out io.Writer) error {
	// mkinitcpio links against libarchive; surface the missing
	// prerequisite before meson produces a less helpful error.
	if err := exec.Command("pkg-config", "--exists", "libarchive").Run(); err != nil {
		return errLibarchiveMissing
	}

	buildDir := filepath.Join(srcDir, "build")
	if err := runStep(ex, srcDir, env, out,
		"meson", "setup", "--prefix=/usr", "--buildtype=release", buildDir); err != nil {
		return err
	}
	if err := runStep(ex, srcDir, env, out,
		"meson", "compile", "-C", buildDir, fmt.Sprintf("-j%d", cfg.Jobs)); err != nil {
		return err
	}

	installArgs := []string{"install", "-C", buildDir}
	if destdir != "/" {
		installArgs = append(installArgs, "--destdir", destdir)
	}
	return runStep(ex, srcDir, env, out, "meson", installArgs...)
}
