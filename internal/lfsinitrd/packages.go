package lfsinitrd

import "path"

// ComponentSpec describes one of the three upstream projects the
// pipeline builds. The set is fixed: util-linux supplies blkid/lsblk
// and libuuid, BusyBox the static userland inside the image, and
// mkinitcpio the generator itself. mkinitcpio's build assumes the
// other two are installed, which is why the order never changes.
type ComponentSpec struct {
	Name        string
	Version     string
	URL         string
	ArchiveName string // overrides the URL basename when set
}

// FullName returns e.g. "busybox-1.36.1", which is also the name of
// the unpacked source directory under <workdir>/build.
func (c ComponentSpec) FullName() string {
	return c.Name + "-" + c.Version
}

// Filename returns the archive file name in the sources cache.
func (c ComponentSpec) Filename() string {
	if c.ArchiveName != "" {
		return c.ArchiveName
	}
	return path.Base(c.URL)
}

var components = []ComponentSpec{
	{
		Name:    "util-linux",
		Version: "2.41.1",
		URL:     "https://mirrors.edge.kernel.org/pub/linux/utils/util-linux/v2.41/util-linux-2.41.1.tar.gz",
	},
	{
		Name:    "busybox",
		Version: "1.36.1",
		URL:     "https://busybox.net/downloads/busybox-1.36.1.tar.bz2",
	},
	{
		Name:        "mkinitcpio",
		Version:     "38",
		URL:         "https://github.com/archlinux/mkinitcpio/archive/refs/tags/v38.tar.gz",
		ArchiveName: "mkinitcpio-38.tar.gz",
	},
}

// Components returns the build set in dependency order.
func Components() []ComponentSpec {
	out := make([]ComponentSpec, len(components))
	copy(out, components)
	return out
}

func findComponent(name string) (ComponentSpec, bool) {
	for _, c := range components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentSpec{}, false
}
