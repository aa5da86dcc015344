package lfsinitrd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var errMalformedLsblk = errors.New("malformed lsblk output")

const fstabPath = "/etc/fstab"

// BlockDeviceRecord is one line of lsblk output: the device node, its
// filesystem UUID, the filesystem type and the current mount point.
type BlockDeviceRecord struct {
	Node       string
	UUID       string
	FSType     string
	MountPoint string
}

// listBlockDevices enumerates block devices via lsblk in raw parseable
// form (one device per line, fixed four columns, full node paths).
func listBlockDevices(ex *Executor) ([]BlockDeviceRecord, error) {
	if _, err := exec.LookPath("lsblk"); err != nil {
		return nil, fmt.Errorf("lsblk not found on PATH: %w", err)
	}

	var out bytes.Buffer
	cmd := exec.Command("lsblk", "-pnro", "NAME,UUID,FSTYPE,MOUNTPOINT")
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := ex.Run(cmd); err != nil {
		return nil, fmt.Errorf("lsblk failed: %w", err)
	}

	return parseLsblkOutput(out.String())
}

// parseLsblkOutput parses `lsblk -pnro NAME,UUID,FSTYPE,MOUNTPOINT`
// lines. Raw mode always emits exactly four space-separated columns,
// empty values included; anything else is treated as a format the
// parser does not understand.
func parseLsblkOutput(out string) ([]BlockDeviceRecord, error) {
	var records []BlockDeviceRecord
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Only strip the line ending: an empty trailing column is a
		// legitimate empty field, not junk whitespace.
		line = strings.TrimRight(line, "\r\n")
		parts := strings.SplitN(line, " ", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: %q", errMalformedLsblk, line)
		}
		records = append(records, BlockDeviceRecord{
			Node:       parts[0],
			UUID:       parts[1],
			FSType:     parts[2],
			MountPoint: parts[3],
		})
	}
	return records, nil
}

// fstabLine renders one record, or "" when the device should not
// appear in fstab (no UUID, or not mounted).
func fstabLine(r BlockDeviceRecord) string {
	if r.UUID == "" {
		return ""
	}
	if r.MountPoint == "[SWAP]" || r.FSType == "swap" {
		return fmt.Sprintf("UUID=%s\tswap\tswap\tpri=0\t0\t0", r.UUID)
	}
	if r.MountPoint == "" || r.MountPoint == "-" {
		return ""
	}

	// Unknown filesystem types get "auto" rather than a guess.
	fstype := r.FSType
	if fstype == "" {
		fstype = "auto"
	}
	passno := 2
	if r.MountPoint == "/" {
		passno = 1
	}
	return fmt.Sprintf("UUID=%s\t%s\t%s\tdefaults\t0\t%d", r.UUID, r.MountPoint, fstype, passno)
}

// renderFstab builds the full replacement fstab content from the
// enumerated devices, in enumeration order.
func renderFstab(records []BlockDeviceRecord) string {
	var lines []string
	for _, r := range records {
		if line := fstabLine(r); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "# Generated by lfsinitrd\n" + strings.Join(lines, "\n") + "\n"
}

// rewriteFstab replaces /etc/fstab wholesale with UUID-keyed entries.
// Device-node entries are not merged or preserved: the UUID entries
// fully supersede them. The old file is backed up once to fstab.bak.
func rewriteFstab(cfg *PipelineConfig, ex *Executor) error {
	records, err := listBlockDevices(ex)
	if err != nil {
		return err
	}

	content := renderFstab(records)
	if content == "" {
		// Writing an empty fstab would leave the host unbootable.
		cPrintln(colWarn, "No mounted devices with UUIDs discovered; leaving fstab untouched.")
		return nil
	}

	path, err := resolvePath(fstabPath, cfg)
	if err != nil {
		return err
	}
	if err := backupOnce(path); err != nil {
		return fmt.Errorf("failed to back up fstab: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	stepf("Regenerated %s using UUIDs", fstabPath)
	return nil
}
