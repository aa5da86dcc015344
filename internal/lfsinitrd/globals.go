package lfsinitrd

import (
	"sync"

	"github.com/gookit/color"
)

// Global variables
var (
	Debug      bool
	Verbose    bool
	ConfigFile = "/etc/lfsinitrd.conf"

	// kernel.org mirror substitution, see applyKernelOrgMirror
	kernelOrgURL      = "https://mirrors.edge.kernel.org/pub"
	mirrorURL         string
	mirrorMessageOnce sync.Once

	version   = "dev"     // overridden at build time
	buildDate = "unknown" // overridden at build time
)

// color helpers
var (
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
