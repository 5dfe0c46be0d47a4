//go:build !fuse

package main

import "fmt"

// doMount is stubbed out in builds without the fuse tag, since FUSE
// requires a kernel module and userspace library not present on every build
// host. Build with -tags fuse to get a working mount command.
func doMount(path, mountpoint string) int {
	fmt.Fprintln(stderr, "vpkctl: mount support was not compiled in (build with -tags fuse)")
	return exitFormatError
}
