package lfsinitrd

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Config holds the values read from /etc/lfsinitrd.conf plus
// LFSINITRD_* environment overrides. It only supplies defaults;
// the authoritative run parameters live in PipelineConfig.
type Config struct {
	Values map[string]string
}

// Load /etc/lfsinitrd.conf and apply defaults
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge LFSINITRD_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge LFSINITRD_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "LFSINITRD_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

// InitConfig applies the loaded values to process-wide settings.
func InitConfig(cfg *Config) {
	Debug = cfg.Values["LFSINITRD_DEBUG"] == "1"

	// Load the kernel.org mirror URL if it's set in the config
	if mirror, exists := cfg.Values["LFSINITRD_MIRROR"]; exists && mirror != "" {
		mirrorURL = strings.TrimRight(mirror, "/")
		debugf("=> Using kernel.org mirror from config: %s\n", mirrorURL)
	}
}

// Flag defaults derived from the file/env config.

func (c *Config) DefaultWorkDir() string {
	if v := c.Values["LFSINITRD_WORKDIR"]; v != "" {
		return v
	}
	return "/tmp/lfs-initrd"
}

func (c *Config) DefaultJobs() int {
	if v := c.Values["LFSINITRD_JOBS"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

func (c *Config) DefaultConfigDir() string {
	if v := c.Values["LFSINITRD_CONFIG_DIR"]; v != "" {
		return v
	}
	return "/usr/share/lfsinitrd/configs"
}

// PipelineConfig is the immutable set of run parameters. It is built
// once from config defaults overlaid by CLI flags and passed to every
// stage; no stage mutates it.
type PipelineConfig struct {
	WorkDir          string
	Jobs             int
	BusyboxConfig    string
	MkinitcpioConfig string
	SkipDownload     bool
	SkipBuild        bool
	SkipInitrd       bool
	FakeRoot         bool
}

// Workdir layout. Sources holds downloaded archives, Build the
// unpacked trees, Logs the per-component build logs.

func (pc *PipelineConfig) SourcesDir() string {
	return filepath.Join(pc.WorkDir, "sources")
}

func (pc *PipelineConfig) BuildDir() string {
	return filepath.Join(pc.WorkDir, "build")
}

func (pc *PipelineConfig) LogDir() string {
	return filepath.Join(pc.WorkDir, "logs")
}

func (pc *PipelineConfig) ChecksumFile() string {
	return filepath.Join(pc.WorkDir, "checksums")
}

// SandboxRoot is the directory standing in for / in fake-root mode.
func (pc *PipelineConfig) SandboxRoot() string {
	return filepath.Join(pc.WorkDir, "fakeroot")
}
