package vpk

import (
	"fmt"
	"io"
	"os"
)

// File is the minimal surface the archive locator needs from an open
// archive or directory file: random-access reads and a close. *os.File
// satisfies this directly; the locator additionally recognizes *os.File
// specifically to enable the memory-mapped fast path (see locator.go).
type File interface {
	io.ReaderAt
	io.Closer
}

// Opener abstracts how the directory file and its sibling archives are
// opened. The two concrete implementations below cover the OS filesystem;
// other implementations (e.g. reading out of an HTTP range server) can
// satisfy the same interface.
type Opener interface {
	// Main opens the directory file (*_dir.vpk, or the single combined
	// file when there are no sibling archives).
	Main() (File, error)
	// Archive opens the sibling archive with the given index
	// (*_NNN.vpk). Returns an error if this opener has no sibling
	// archives (single-file mode).
	Archive(index int32) (File, error)
}

type singleVPKOpener string

// SingleVPKOpener opens a single combined VPK file that stores every body
// via the embedded (EmbeddedArchiveIndex) archive slot; it has no siblings.
func SingleVPKOpener(path string) Opener {
	return singleVPKOpener(path)
}

func (o singleVPKOpener) Main() (File, error) {
	f, err := os.Open(string(o))
	return f, wrapIo(string(o), err)
}

func (o singleVPKOpener) Archive(index int32) (File, error) {
	return nil, ErrMissingArchive(index)
}

type multiVPKOpener string

// MultiVPKOpener opens a directory file and its sibling archives given the
// shared prefix (the part of the filename before "_dir.vpk").
func MultiVPKOpener(prefix string) Opener {
	return multiVPKOpener(prefix)
}

func (o multiVPKOpener) Main() (File, error) {
	path := string(o) + "_dir.vpk"
	f, err := os.Open(path)
	return f, wrapIo(path, err)
}

func (o multiVPKOpener) Archive(index int32) (File, error) {
	path := fmt.Sprintf("%s_%03d.vpk", string(o), index)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissingArchive(index)
		}
		return nil, wrapIo(path, err)
	}
	return f, nil
}

// openerFor picks SingleVPKOpener or MultiVPKOpener based on whether path
// ends in the conventional "_dir.vpk" suffix, matching the CLI tools'
// convention for telling the two layouts apart.
func openerFor(path string) Opener {
	const suffix = "_dir.vpk"
	if len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix {
		return MultiVPKOpener(path[:len(path)-len(suffix)])
	}
	return SingleVPKOpener(path)
}
