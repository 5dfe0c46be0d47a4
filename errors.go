package vpk

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrBadMagic reports a malformed magic number. readHeader does not return
// it: a directory file whose first four bytes are not the magic is read as
// version 0.
var ErrBadMagic = errors.New("vpk: invalid magic number")

// ErrUnsupportedVersion is returned when the header's version word is
// anything other than 1 or 2.
type ErrUnsupportedVersion uint32

func (err ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("vpk: unsupported VPK version: %d", uint32(err))
}

// ErrTruncatedIndex is returned when EOF is reached while the index grammar
// is still expecting bytes (a group terminator, an entry, or inline data).
var ErrTruncatedIndex = errors.New("vpk: directory file truncated inside index")

// ErrTruncatedArchive is returned when a read from an archive (sibling or
// embedded) comes up short of the requested length.
type ErrTruncatedArchive struct {
	ArchiveIndex int32
	Want, Got    int64
}

func (err ErrTruncatedArchive) Error() string {
	return fmt.Sprintf("vpk: archive %d truncated: wanted %d bytes, got %d", err.ArchiveIndex, err.Want, err.Got)
}

// ErrBadTerminator is returned when an entry's terminator field is not
// 0xFFFF. Only entry records are checked this way; a missing index-level
// group terminator is not detected as such and surfaces as a later parse
// error (usually ErrTruncatedIndex).
type ErrBadTerminator struct {
	Expected, Got uint16
}

func (err ErrBadTerminator) Error() string {
	return fmt.Sprintf("vpk: bad terminator: expected %#04x, got %#04x", err.Expected, err.Got)
}

// ErrDuplicateEntry is returned when the index contains two entries with the
// same (extension, directory, name) triple.
type ErrDuplicateEntry struct {
	Ext, Dir, Name string
}

func (err ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("vpk: duplicate entry for %s", joinPath(err.Ext, err.Dir, err.Name))
}

// ErrMissingArchive is returned when a sibling archive file referenced by an
// entry does not exist.
type ErrMissingArchive int32

func (err ErrMissingArchive) Error() string {
	return fmt.Sprintf("vpk: missing archive %03d", int32(err))
}

// ErrCrcMismatch is returned by the integrity engine when an extracted
// file's CRC32 does not match the value stored in its entry.
type ErrCrcMismatch struct {
	Path             string
	Expected, Actual uint32
}

func (err ErrCrcMismatch) Error() string {
	return fmt.Sprintf("vpk: CRC mismatch for %s: %08x (expected %08x)", err.Path, err.Actual, err.Expected)
}

// Md5Location names which of the three v2 digests, or which archive-md5
// slice, failed to verify.
type Md5Location struct {
	// Which is one of "index", "archive_md5s", "everything", or "slice".
	Which string
	// Slice-only fields, valid when Which == "slice".
	ArchiveIndex int32
	Offset, Size uint32
}

func (loc Md5Location) String() string {
	if loc.Which == "slice" {
		return fmt.Sprintf("archive %d slice [%d,%d)", loc.ArchiveIndex, loc.Offset, loc.Offset+loc.Size)
	}
	return loc.Which
}

// ErrMd5Mismatch is returned by the integrity engine when a v2 MD5 digest
// does not match its recomputed value.
type ErrMd5Mismatch struct {
	Where            Md5Location
	Expected, Actual [16]byte
}

func (err ErrMd5Mismatch) Error() string {
	return fmt.Sprintf("vpk: MD5 mismatch for %s: %x (expected %x)", err.Where, err.Actual, err.Expected)
}

// ErrTooManyArchives is returned by the writer when storing the input would
// need a sibling archive index above 0x7FFE (more than 0x7FFF archives).
var ErrTooManyArchives = errors.New("vpk: too many archives: archive index would exceed 0x7ffe")

// ErrInvalidName is returned by the writer when an input path cannot be
// encoded: a path component contains an embedded NUL, or the file name is
// empty. Non-ASCII bytes are not rejected.
type ErrInvalidName struct {
	Path   string
	Reason string
}

func (err ErrInvalidName) Error() string {
	return fmt.Sprintf("vpk: invalid name %q: %s", err.Path, err.Reason)
}

// wrapIo wraps an I/O failure with the path that caused it, preserving the
// original error for errors.Cause/errors.Unwrap.
func wrapIo(path string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "vpk: I/O error on %s", path)
}

func joinPath(ext, dir, name string) string {
	s := name
	if dir != "" {
		s = dir + "/" + s
	}
	if ext != "" {
		s = s + "." + ext
	}
	return s
}
