package lfsinitrd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/ulikunitz/xz"
	"golang.org/x/term"
)

// PrintHelp prints the commands table
func PrintHelp() {
	colSuccess.Println("Usage: lfsinitrd <command> [arguments]")
	colSuccess.Println("Run 'lfsinitrd <command> -h' for command options")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"run", "[options]", "Build and install the initramfs tooling, then generate the image"},
		{"log", "[component]", "View a component's build log"},
		{"version, --version", "", "Version information"},
		{"help", "", "Show this help"},
	}

	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("%s %s", c.Cmd, c.Args)
		} else {
			usageString = c.Cmd
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}
		fmt.Print(strings.Repeat(" ", columnWidth-len(usageString)))
		fmt.Println(c.Desc)
	}
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("lfsinitrd %s (built %s)\n", version, buildDate)
}

// confirmRun shows the disclaimer and waits for an explicit Y. Skipped
// when stdin is not a TTY so the tool stays scriptable.
func confirmRun() bool {
	cPrintln(colWarn, "DISCLAIMER: this automation modifies boot-critical components. A mistake can leave the system unbootable.")
	fmt.Println("The run will download sources, build util-linux, BusyBox and mkinitcpio, install configuration,")
	fmt.Println("generate an initramfs, refresh GRUB, and regenerate /etc/fstab.")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	colArrow.Print("-> ")
	colSuccess.Print("Enter 'Y' to confirm and continue: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// RunCommand parses the run flags, freezes the PipelineConfig and
// executes the pipeline. Returns the process exit code.
func RunCommand(ctx context.Context, cfg *Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	workdir := fs.String("workdir", cfg.DefaultWorkDir(), "Working directory for sources, builds and logs")
	jobs := fs.Int("j", cfg.DefaultJobs(), "Number of parallel make/meson jobs")
	jobsLong := fs.Int("jobs", 0, "Alias for -j")
	busyboxConf := fs.String("busybox-config", filepath.Join(cfg.DefaultConfigDir(), "busybox.config"), "Path to the BusyBox .config file")
	mkinitcpioConf := fs.String("mkinitcpio-config", filepath.Join(cfg.DefaultConfigDir(), "mkinitcpio.conf"), "Path to mkinitcpio.conf")
	skipDownload := fs.Bool("skip-download", false, "Skip downloading and extracting sources (verify only)")
	skipBuild := fs.Bool("skip-build", false, "Skip building packages")
	skipInitrd := fs.Bool("skip-initrd", false, "Skip initramfs generation, bootloader refresh and fstab rewrite")
	fake := fs.Bool("fake", false, "Redirect all filesystem mutations into <workdir>/fakeroot")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	verbose := fs.Bool("verbose", false, "Stream build output to the console")
	debug := fs.Bool("debug", false, "Enable debug output")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *debug {
		Debug = true
	}
	Verbose = *verbose

	effectiveJobs := *jobs
	if *jobsLong > 0 {
		effectiveJobs = *jobsLong
	}

	pc := PipelineConfig{
		WorkDir:          *workdir,
		Jobs:             effectiveJobs,
		BusyboxConfig:    *busyboxConf,
		MkinitcpioConfig: *mkinitcpioConf,
		SkipDownload:     *skipDownload,
		SkipBuild:        *skipBuild,
		SkipInitrd:       *skipInitrd,
		FakeRoot:         *fake,
	}

	if !pc.FakeRoot && os.Geteuid() != 0 {
		cPrintln(colError, "This command must be run as root (or use -fake).")
		return 1
	}

	if !*yes && !confirmRun() {
		cPrintln(colWarn, "Aborted by user confirmation.")
		return 1
	}

	if err := os.MkdirAll(pc.WorkDir, 0o755); err != nil {
		cPrintf(colError, "Failed to create workdir %s: %v\n", pc.WorkDir, err)
		return 1
	}

	ex := NewExecutor(ctx)
	if err := Run(&pc, ex); err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}

	stepf("All tasks completed.")
	return 0
}

// LogCommand shows the build log of a component, decompressing it if
// the build already finished and the log was xz-packed.
func LogCommand(cfg *Config, args []string) int {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	workdir := fs.String("workdir", cfg.DefaultWorkDir(), "Working directory the run used")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() == 0 {
		color.Info.Println("Components with build logs:")
		for _, comp := range Components() {
			logDir := filepath.Join(*workdir, "logs", comp.Name)
			if dirExists(logDir) {
				fmt.Printf("  %s\n", comp.Name)
			}
		}
		return 0
	}

	name := fs.Arg(0)
	comp, ok := findComponent(name)
	if !ok {
		cPrintf(colError, "Unknown component: %s\n", name)
		return 1
	}

	lines, err := readBuildLog(filepath.Join(*workdir, "logs", comp.Name, "build-log.txt"))
	if err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}
	if err := RunPager(comp.FullName()+" build log", lines); err != nil {
		cPrintf(colError, "Error: %v\n", err)
		return 1
	}
	return 0
}

func readBuildLog(plainPath string) ([]string, error) {
	var r io.Reader

	if f, err := os.Open(plainPath); err == nil {
		defer f.Close()
		r = f
	} else if f, err := os.Open(plainPath + ".xz"); err == nil {
		defer f.Close()
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress log: %w", err)
		}
		r = xzr
	} else {
		return nil, fmt.Errorf("no build log found at %s", plainPath)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}
