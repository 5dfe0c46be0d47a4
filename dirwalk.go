package vpk

import "strings"

// DirEntry describes one child of a directory listing produced by
// Package.ReadDir: either a file (an Entry) or a synthesized subdirectory.
type DirEntry struct {
	Name  string
	IsDir bool
	// Entry is non-nil when IsDir is false.
	Entry *Entry
}

// ReadDir lists the immediate children of dir (forward-slash separated,
// "" for the package root) the way a filesystem directory listing would:
// files that live directly in dir, and one synthesized entry per distinct
// subdirectory name. Order is not significant; the FUSE mount adapter uses
// it to list directories.
//
// This generalizes the directory walk the teacher used to implement
// http.FileSystem: the same grouping, retargeted at a plain DirEntry slice
// instead of an http.File, so it can back both an http.FileSystem-style
// adapter and a FUSE filesystem without depending on either package here.
func (p *Package) ReadDir(dir string) []DirEntry {
	var out []DirEntry
	seenDirs := make(map[string]bool)

	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	for _, e := range p.Tree.Entries() {
		if e.Dir == dir {
			out = append(out, DirEntry{Name: baseName(e), Entry: e})
			continue
		}
		if !strings.HasPrefix(e.Dir, prefix) {
			continue
		}
		rest := e.Dir[len(prefix):]
		child := rest
		if i := strings.IndexByte(rest, '/'); i != -1 {
			child = rest[:i]
		}
		if child == "" || seenDirs[child] {
			continue
		}
		seenDirs[child] = true
		out = append(out, DirEntry{Name: child, IsDir: true})
	}

	return out
}

func baseName(e *Entry) string {
	if e.Ext == "" {
		return e.Name
	}
	return e.Name + "." + e.Ext
}
