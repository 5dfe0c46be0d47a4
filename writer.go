package vpk

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/panzi/rust-vpk/internal/wire"
)

// DefaultArchiveSize is the packer's default cap (§4.7) on a sibling
// archive's size before the writer starts a new one.
const DefaultArchiveSize int64 = 200 * 1024 * 1024

// WriterOptions configures Pack. The zero value is not ready to use; call
// DefaultWriterOptions and override individual fields, the way
// iso9660.DefaultOptions works.
type WriterOptions struct {
	// ArchiveSize caps each sibling archive; 0 means a single archive
	// with no cap.
	ArchiveSize int64
	// InlineThreshold is the largest file size, in bytes, eligible to be
	// inlined into the directory file instead of a sibling archive.
	InlineThreshold int64
	// Force allows overwriting existing output files instead of failing
	// with an exclusive-create error.
	Force bool
	// Version selects the directory file format to emit. Only 1 is
	// currently supported.
	Version uint32
}

// DefaultWriterOptions returns the packer's defaults: a 200MiB archive cap,
// an inline threshold of 0 (only empty files are inlined), exclusive create,
// version 1.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		ArchiveSize:     DefaultArchiveSize,
		InlineThreshold: 0,
		Force:           false,
		Version:         1,
	}
}

// PackResult summarizes a completed Pack call.
type PackResult struct {
	FilesWritten int
	TotalBytes   int64
	ArchiveCount int
}

// Summary renders r as a short human-readable line using go-humanize, e.g.
// "42 files, 1.3 GB, 3 archives".
func (r PackResult) Summary() string {
	return humanize.Comma(int64(r.FilesWritten)) + " files, " +
		humanize.Bytes(uint64(r.TotalBytes)) + ", " +
		humanize.Comma(int64(r.ArchiveCount)) + " archives"
}

// Pack walks srcDir, groups its files the way §4.7 specifies, and writes a
// v1 VPK package at outPrefix+"_dir.vpk" (plus outPrefix_NNN.vpk siblings as
// needed) on the OS filesystem. If opts is nil, DefaultWriterOptions() is
// used.
func Pack(outPrefix, srcDir string, opts *WriterOptions) (PackResult, error) {
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	creator := NewFSCreator(outPrefix, opts.Force)
	return PackWith(creator, srcDir, opts)
}

// PackWith is like Pack but accepts a caller-supplied Creator, e.g. to write
// into storage other than the local OS filesystem.
func PackWith(creator Creator, srcDir string, opts *WriterOptions) (result PackResult, err error) {
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	if opts.Version != 1 {
		return PackResult{}, ErrUnsupportedVersion(opts.Version)
	}

	defer func() {
		if err != nil {
			if cerr := creator.Cleanup(); cerr != nil {
				err = cerr
			}
		}
	}()

	files, err := scanSourceTree(srcDir)
	if err != nil {
		return PackResult{}, err
	}

	for _, pf := range files {
		pf.CRC, err = hashFile(pf.SourcePath)
		if err != nil {
			return PackResult{}, err
		}
	}

	if err = assignStorage(files, opts.ArchiveSize, opts.InlineThreshold); err != nil {
		return PackResult{}, err
	}

	tree := NewIndexTree()
	archivesUsed := make(map[int32]bool)
	for _, pf := range files {
		e := &Entry{Ext: pf.Ext, Dir: pf.Dir, Name: pf.Name, CRC: pf.CRC}
		if pf.inline {
			inline, rerr := os.ReadFile(pf.SourcePath)
			if rerr != nil {
				err = wrapIo(pf.SourcePath, rerr)
				return PackResult{}, err
			}
			e.Inline = inline
			e.ArchiveIndex = EmbeddedArchiveIndex
		} else {
			e.ArchiveIndex = pf.archiveIndex
			e.Offset = pf.offset
			e.Size = uint32(pf.Size)
			archivesUsed[pf.archiveIndex] = true
		}
		if ierr := tree.Insert(e); ierr != nil {
			err = ierr
			return PackResult{}, err
		}
	}

	var indexBuf bytes.Buffer
	if werr := serializeIndex(&indexBuf, tree); werr != nil {
		err = werr
		return PackResult{}, err
	}

	mainFile, merr := creator.Main()
	if merr != nil {
		err = merr
		return PackResult{}, err
	}
	mw := bufio.NewWriter(mainFile)

	if werr := writeV1Header(mw, uint32(indexBuf.Len())); werr != nil {
		mainFile.Close()
		err = werr
		return PackResult{}, err
	}
	if _, werr := indexBuf.WriteTo(mw); werr != nil {
		mainFile.Close()
		err = werr
		return PackResult{}, err
	}
	if werr := mw.Flush(); werr != nil {
		mainFile.Close()
		err = werr
		return PackResult{}, err
	}
	if cerr := mainFile.Close(); cerr != nil {
		err = cerr
		return PackResult{}, err
	}

	if werr := writeArchives(creator, files); werr != nil {
		err = werr
		return PackResult{}, err
	}

	var totalBytes int64
	for _, pf := range files {
		totalBytes += pf.Size
	}

	result = PackResult{
		FilesWritten: len(files),
		TotalBytes:   totalBytes,
		ArchiveCount: len(archivesUsed),
	}
	return result, nil
}

// writeArchives streams every non-inline file's body into its assigned
// sibling archive, files in the same archive written back to back in
// assignment order with no padding between them.
func writeArchives(creator Creator, files []*plannedFile) error {
	var current io.WriteCloser
	var currentIndex int32 = -1

	closeCurrent := func() error {
		if current == nil {
			return nil
		}
		err := current.Close()
		current = nil
		return err
	}

	for _, pf := range files {
		if pf.inline {
			continue
		}
		if current == nil || pf.archiveIndex != currentIndex {
			if err := closeCurrent(); err != nil {
				return err
			}
			a, err := creator.Archive(pf.archiveIndex)
			if err != nil {
				return err
			}
			current = a
			currentIndex = pf.archiveIndex
		}

		if err := copyFileInto(current, pf); err != nil {
			closeCurrent()
			return err
		}
	}

	return closeCurrent()
}

func copyFileInto(w io.Writer, pf *plannedFile) error {
	f, err := os.Open(pf.SourcePath)
	if err != nil {
		return wrapIo(pf.SourcePath, err)
	}
	defer f.Close()

	r := crcReader(f, func() error { return nil }, pf.CRC)
	n, err := io.Copy(w, r)
	if err != nil {
		return wrapIo(pf.SourcePath, err)
	}
	if n != pf.Size {
		return wrapIo(pf.SourcePath, io.ErrUnexpectedEOF)
	}
	return r.Close()
}

// serializeIndex writes t's grammar: nested extension/directory/entry
// groups, each level terminated by an empty AsciiZ, in the tree's existing
// (already-sorted, by construction) group order.
func serializeIndex(w io.Writer, t *IndexTree) error {
	for _, eg := range t.exts {
		if err := wire.WriteAsciiZ(w, normalizeForWrite(eg.name)); err != nil {
			return err
		}
		for _, dg := range eg.dirs {
			if err := wire.WriteAsciiZ(w, normalizeForWrite(dg.name)); err != nil {
				return err
			}
			for _, e := range dg.entries {
				if err := writeEntryRecord(w, e); err != nil {
					return err
				}
			}
			if err := wire.WriteAsciiZ(w, ""); err != nil {
				return err
			}
		}
		if err := wire.WriteAsciiZ(w, ""); err != nil {
			return err
		}
	}
	return wire.WriteAsciiZ(w, "")
}

func writeEntryRecord(w io.Writer, e *Entry) error {
	if err := wire.WriteAsciiZ(w, e.Name); err != nil {
		return err
	}
	if err := wire.WriteU32(w, e.CRC); err != nil {
		return err
	}
	if err := wire.WriteU16(w, uint16(len(e.Inline))); err != nil {
		return err
	}
	if err := wire.WriteU16(w, uint16(e.ArchiveIndex)); err != nil {
		return err
	}
	if err := wire.WriteU32(w, e.Offset); err != nil {
		return err
	}
	if err := wire.WriteU32(w, e.Size); err != nil {
		return err
	}
	if err := wire.WriteU16(w, entryTerminator); err != nil {
		return err
	}
	if len(e.Inline) > 0 {
		if _, err := w.Write(e.Inline); err != nil {
			return err
		}
	}
	return nil
}
