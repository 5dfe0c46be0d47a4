package vpk

// EmbeddedArchiveIndex is the sentinel archive index meaning "this file's
// body lives inside the directory file itself," immediately after the index.
const EmbeddedArchiveIndex = 0x7FFF

// entryTerminator is the fixed value every on-disk entry record ends with.
// It exists purely as a sanity check against truncation/misalignment; any
// other value is rejected.
const entryTerminator = 0xFFFF

// Entry describes one file stored in a VPK package.
//
// The file's full content is the inline data in Inline (held directly by
// the Entry) followed by Size bytes read from archive ArchiveIndex at
// Offset. When Size is zero the file is wholly represented by its inline
// data.
type Entry struct {
	// Ext is the lowercase ASCII extension without the leading dot, or ""
	// if the file has no extension.
	Ext string
	// Dir is the forward-slash separated directory path, or "" for the
	// package root. Never has a leading or trailing slash.
	Dir string
	// Name is the base filename without its extension. May contain dots.
	Name string

	// CRC is the IEEE CRC32 of the concatenation of Inline and the body.
	CRC uint32
	// Inline holds the first len(Inline) bytes of the file, stored
	// directly in the index.
	Inline []byte
	// ArchiveIndex names the archive holding the body: 0..0x7FFE for a
	// sibling _NNN.vpk file, or EmbeddedArchiveIndex for the directory
	// file itself.
	ArchiveIndex int32
	// Offset is the body's starting offset within its archive. For
	// ArchiveIndex == EmbeddedArchiveIndex this is relative to the start
	// of the embedded data region, not the start of the file.
	Offset uint32
	// Size is the number of body bytes following Offset. Zero means the
	// file is entirely inline.
	Size uint32
}

// Path reconstructs the entry's package-relative path: "dir/name.ext" with
// degenerate joins collapsed when Dir or Ext is empty.
func (e *Entry) Path() string {
	return joinPath(e.Ext, e.Dir, e.Name)
}

// TotalSize returns the full size of the file's content: inline bytes plus
// body bytes.
func (e *Entry) TotalSize() int64 {
	return int64(len(e.Inline)) + int64(e.Size)
}
