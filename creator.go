package vpk

import (
	"fmt"
	"io"
	"os"
)

// Creator abstracts how the writer creates the directory file and its
// sibling archives. The OS implementation below never overwrites an
// existing file in place (§5): it opens with O_EXCL unless Force is set,
// and it remembers every path it created so the writer can remove them all
// if packing fails partway through (§4.7's "fails atomically").
type Creator interface {
	// Main creates the directory file (*_dir.vpk, or the single combined
	// file when the writer is configured for embedded-only output).
	Main() (io.WriteCloser, error)
	// Archive creates the sibling archive with the given index
	// (*_NNN.vpk).
	Archive(index int32) (io.WriteCloser, error)
	// Cleanup removes every file this Creator has created. Called by the
	// writer when packing fails partway through.
	Cleanup() error
}

// fsCreator is the OS-filesystem Creator used by the writer. single is true
// for a combined single-file output (no sibling archives permitted).
type fsCreator struct {
	prefix  string
	single  bool
	force   bool
	created []string
}

// NewFSCreator returns a Creator that writes prefix+"_dir.vpk" and
// prefix+"_NNN.vpk" sibling archives on the OS filesystem. If force is
// false, creation fails if any target file already exists.
func NewFSCreator(prefix string, force bool) Creator {
	return &fsCreator{prefix: prefix, force: force}
}

// NewFSSingleCreator returns a Creator that writes a single combined file at
// path, with no sibling archives permitted (every entry must be embedded).
func NewFSSingleCreator(path string, force bool) Creator {
	return &fsCreator{prefix: path, single: true, force: force}
}

func (c *fsCreator) create(path string) (io.WriteCloser, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, wrapIo(path, err)
	}
	c.created = append(c.created, path)
	return f, nil
}

func (c *fsCreator) Main() (io.WriteCloser, error) {
	path := c.prefix
	if !c.single {
		path += "_dir.vpk"
	}
	return c.create(path)
}

func (c *fsCreator) Archive(index int32) (io.WriteCloser, error) {
	if c.single {
		return nil, fmt.Errorf("vpk: single-file output has no sibling archives")
	}
	return c.create(fmt.Sprintf("%s_%03d.vpk", c.prefix, index))
}

func (c *fsCreator) Cleanup() error {
	var firstErr error
	for _, path := range c.created {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	c.created = nil
	return firstErr
}
