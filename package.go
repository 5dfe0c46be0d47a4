// Package vpk implements file operations on Valve Software's VPK format.
package vpk

import (
	"bufio"
	"bytes"
	"io"

	"github.com/panzi/rust-vpk/internal/wire"
)

// ArchiveMd5Entry is one v2 "archive MD5" slice checksum: the MD5 digest of
// size bytes read at offset in the named archive. Slices need not cover the
// whole archive and may overlap or appear in any order.
type ArchiveMd5Entry struct {
	ArchiveIndex int32
	Offset       uint32
	Size         uint32
	Digest       [16]byte
}

// OtherMd5s holds the three fixed v2 digests: over the raw index section,
// over the raw archive-md5 section, and over every byte of the directory
// file that precedes this struct's own on-disk position.
type OtherMd5s struct {
	IndexMd5       [16]byte
	ArchiveMd5sMd5 [16]byte
	EverythingMd5  [16]byte
}

// SignatureBlob is the v2 trailer's opaque public-key/signature pair. Its
// contents are round-tripped only; this package never verifies or
// generates signatures (the algorithm is undocumented).
type SignatureBlob struct {
	PublicKey []byte
	Signature []byte
}

// Package is the in-memory representation of an opened VPK archive: its
// format version, index tree, the byte layout of the directory file, and
// (for v2) the integrity trailers. A Package is immutable after Open except
// when a new one is being assembled by the writer.
type Package struct {
	Version uint32
	Path    string
	Tree    *IndexTree

	headerSize uint32
	indexSize  uint32
	// dataSize is the size of the embedded data region that follows the
	// index in the directory file (entries with ArchiveIndex ==
	// EmbeddedArchiveIndex read their bodies from here).
	dataSize uint32

	ArchiveMd5s []ArchiveMd5Entry
	OtherMd5s   *OtherMd5s // nil except for v2
	Signature   *SignatureBlob

	indexBytes      []byte // raw index section, captured for index_md5 verification
	archiveMd5Bytes []byte // raw archive-md5 section, captured for archive_md5s_md5 verification

	locator *locator
}

// Open reads and parses the directory file at path (conventionally ending
// in "_dir.vpk", though a single combined file with no sibling archives is
// also accepted) and returns the resulting Package. Sibling archives are
// not opened until an Extract or integrity check requires them.
func Open(path string) (*Package, error) {
	opener := openerFor(path)
	return OpenWith(path, opener)
}

// OpenWith is like Open but lets the caller supply a custom Opener, e.g. to
// read archives that do not live on the local OS filesystem.
func OpenWith(path string, opener Opener) (*Package, error) {
	f, err := opener.Main()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, ok := f.(io.Reader)
	if !ok {
		return nil, wrapIo(path, io.ErrClosedPipe)
	}
	// cr counts bytes pulled from the raw stream; combined with br's own
	// Buffered() count, it lets the version-0 path recover the exact logical
	// read position (cr.n - br.Buffered()) without the over-read a second,
	// nested bufio.Reader would introduce via its own look-ahead fill.
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)

	hdr, err := readHeader(br)
	if err != nil {
		return nil, wrapIo(path, err)
	}

	pkg := &Package{
		Version:    hdr.Version,
		Path:       path,
		headerSize: hdr.HeaderSize,
	}

	switch hdr.Version {
	case 1:
		idxBytes := make([]byte, hdr.IndexSize)
		if _, err := io.ReadFull(br, idxBytes); err != nil {
			return nil, wrapIo(path, ErrTruncatedIndex)
		}
		tree, err := parseIndex(bufio.NewReader(bytes.NewReader(idxBytes)))
		if err != nil {
			return nil, err
		}
		pkg.Tree = tree
		pkg.indexSize = hdr.IndexSize
		pkg.indexBytes = idxBytes
		pkg.dataSize = 0 // v1 never declares a data size; embedded reads are bounds-checked by the locator instead

	case 2:
		idxBytes := make([]byte, hdr.IndexSize)
		if _, err := io.ReadFull(br, idxBytes); err != nil {
			return nil, wrapIo(path, ErrTruncatedIndex)
		}
		tree, err := parseIndex(bufio.NewReader(bytes.NewReader(idxBytes)))
		if err != nil {
			return nil, err
		}
		pkg.Tree = tree
		pkg.indexSize = hdr.IndexSize
		pkg.indexBytes = idxBytes
		pkg.dataSize = hdr.DataSize

		if hdr.DataSize > 0 {
			if _, err := io.CopyN(io.Discard, br, int64(hdr.DataSize)); err != nil {
				return nil, wrapIo(path, ErrTruncatedArchive{ArchiveIndex: EmbeddedArchiveIndex, Want: int64(hdr.DataSize)})
			}
		}

		amd5Bytes := make([]byte, hdr.ArchiveMd5Size)
		if _, err := io.ReadFull(br, amd5Bytes); err != nil {
			return nil, wrapIo(path, ErrTruncatedIndex)
		}
		pkg.archiveMd5Bytes = amd5Bytes
		pkg.ArchiveMd5s, err = parseArchiveMd5Table(amd5Bytes)
		if err != nil {
			return nil, err
		}

		other, err := parseOtherMd5s(br, hdr.OtherMd5Size)
		if err != nil {
			return nil, wrapIo(path, err)
		}
		pkg.OtherMd5s = other

		sig, err := parseSignature(br, hdr.SignatureSize)
		if err != nil {
			return nil, wrapIo(path, err)
		}
		pkg.Signature = sig

	default: // version 0: no header, infer index size by draining the grammar
		tree, err := parseIndex(br)
		if err != nil {
			return nil, err
		}
		pkg.Tree = tree
		pkg.indexSize = uint32(cr.n - int64(br.Buffered()))
	}

	pkg.locator = newLocator(opener, path)

	return pkg, nil
}

// Iter returns every entry in on-disk order.
func (p *Package) Iter() []*Entry {
	return p.Tree.Entries()
}

// Entry looks up the file at the given package-relative path ("dir/name.ext").
func (p *Package) Entry(path string) *Entry {
	ext, dir, name := splitEntryPath(path)
	return p.Tree.Find(ext, dir, name)
}

// Close releases any cached archive handles (and memory maps) the locator
// has opened.
func (p *Package) Close() error {
	return p.locator.Close()
}

// Extract streams e's full content (inline prefix then body) into w,
// verifying the CRC32 as it goes. The returned error, if any, is
// ErrCrcMismatch{...} when the verification fails after a complete read.
func (p *Package) Extract(e *Entry, w io.Writer) error {
	r, err := p.openEntry(e)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, r)
	closeErr := r.Close()
	if copyErr != nil {
		return wrapIo(e.Path(), copyErr)
	}
	if closeErr != nil {
		if mm, ok := closeErr.(crcMismatchRaw); ok {
			return ErrCrcMismatch{Path: e.Path(), Expected: mm.Expected, Actual: mm.Actual}
		}
		return closeErr
	}
	return nil
}

// openEntry returns a CRC-verifying reader over e's full content.
func (p *Package) openEntry(e *Entry) (io.ReadCloser, error) {
	if e.Size == 0 {
		return crcReader(bytes.NewReader(e.Inline), func() error { return nil }, e.CRC), nil
	}

	body, closeFn, err := p.locator.openRange(e.ArchiveIndex, e.Offset, e.Size, p.headerSize, p.indexSize, false)
	if err != nil {
		return nil, err
	}

	return crcReader(io.MultiReader(bytes.NewReader(e.Inline), body), closeFn, e.CRC), nil
}

func parseArchiveMd5Table(b []byte) ([]ArchiveMd5Entry, error) {
	const recLen = 4 + 4 + 4 + 16
	if len(b)%recLen != 0 {
		return nil, ErrTruncatedIndex
	}
	n := len(b) / recLen
	out := make([]ArchiveMd5Entry, n)
	r := bytes.NewReader(b)
	for i := 0; i < n; i++ {
		idx, _ := wire.ReadU32(r)
		off, _ := wire.ReadU32(r)
		size, _ := wire.ReadU32(r)
		var digest [16]byte
		if _, err := io.ReadFull(r, digest[:]); err != nil {
			return nil, ErrTruncatedIndex
		}
		out[i] = ArchiveMd5Entry{ArchiveIndex: int32(idx), Offset: off, Size: size, Digest: digest}
	}
	return out, nil
}

func parseOtherMd5s(r io.Reader, declaredSize uint32) (*OtherMd5s, error) {
	const size = 48
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncatedIndex
	}
	if declaredSize > size {
		if _, err := io.CopyN(io.Discard, r, int64(declaredSize-size)); err != nil {
			return nil, ErrTruncatedIndex
		}
	}
	var o OtherMd5s
	copy(o.IndexMd5[:], buf[0:16])
	copy(o.ArchiveMd5sMd5[:], buf[16:32])
	copy(o.EverythingMd5[:], buf[32:48])
	return &o, nil
}

func parseSignature(r io.Reader, declaredSize uint32) (*SignatureBlob, error) {
	if declaredSize == 0 {
		return &SignatureBlob{}, nil
	}
	pubLen, err := wire.ReadU32(r)
	if err != nil {
		return nil, ErrTruncatedIndex
	}
	pub := make([]byte, pubLen)
	if _, err := io.ReadFull(r, pub); err != nil {
		return nil, ErrTruncatedIndex
	}
	sigLen, err := wire.ReadU32(r)
	if err != nil {
		return nil, ErrTruncatedIndex
	}
	sig := make([]byte, sigLen)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, ErrTruncatedIndex
	}
	return &SignatureBlob{PublicKey: pub, Signature: sig}, nil
}

// parseIndex consumes the nested extension/directory/entry grammar from br
// until the top-level (extension) terminator, inserting every entry into a
// fresh IndexTree.
//
// Both the directory and extension levels reserve a literal single space
// (" ") to mean "empty" (root directory, or no extension), because an
// actually-empty AsciiZ string is the group terminator at every level. Base
// names never need this trick: the spec requires every entry to have a
// non-empty name, so an empty name unambiguously ends the name loop.
func parseIndex(br *bufio.Reader) (tree *IndexTree, err error) {
	defer func() {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			tree, err = nil, ErrTruncatedIndex
		}
	}()

	tree = NewIndexTree()

	for {
		extRaw, err := wire.ReadAsciiZ(br)
		if err != nil {
			return nil, err
		}
		if extRaw == "" {
			break
		}
		ext := denormalize(extRaw)

		for {
			dirRaw, err := wire.ReadAsciiZ(br)
			if err != nil {
				return nil, err
			}
			if dirRaw == "" {
				break
			}
			dir := denormalize(dirRaw)

			for {
				name, err := wire.ReadAsciiZ(br)
				if err != nil {
					return nil, err
				}
				if name == "" {
					break
				}

				e, err := readEntryRecord(br, ext, dir, name)
				if err != nil {
					return nil, err
				}
				if err := tree.Insert(e); err != nil {
					return nil, err
				}
			}
		}
	}

	return tree, nil
}

// denormalize maps the on-disk placeholder " " back to "".
func denormalize(raw string) string {
	if raw == " " {
		return ""
	}
	return raw
}

// normalizeForWrite maps "" to the on-disk placeholder " " so it is not
// mistaken for a group terminator; any other string passes through.
func normalizeForWrite(s string) string {
	if s == "" {
		return " "
	}
	return s
}

func readEntryRecord(br *bufio.Reader, ext, dir, name string) (*Entry, error) {
	crc, err := wire.ReadU32(br)
	if err != nil {
		return nil, err
	}
	inlineSize, err := wire.ReadU16(br)
	if err != nil {
		return nil, err
	}
	archiveIndex, err := wire.ReadU16(br)
	if err != nil {
		return nil, err
	}
	offset, err := wire.ReadU32(br)
	if err != nil {
		return nil, err
	}
	size, err := wire.ReadU32(br)
	if err != nil {
		return nil, err
	}
	terminator, err := wire.ReadU16(br)
	if err != nil {
		return nil, err
	}
	if terminator != entryTerminator {
		return nil, ErrBadTerminator{Expected: entryTerminator, Got: terminator}
	}

	var inline []byte
	if inlineSize > 0 {
		inline = make([]byte, inlineSize)
		if _, err := io.ReadFull(br, inline); err != nil {
			return nil, ErrTruncatedIndex
		}
	}

	return &Entry{
		Ext:          ext,
		Dir:          dir,
		Name:         name,
		CRC:          crc,
		Inline:       inline,
		ArchiveIndex: int32(archiveIndex),
		Offset:       offset,
		Size:         size,
	}, nil
}

// splitEntryPath mirrors the writer's own splitting rule so that Entry
// lookups by path agree with how the writer derived (ext, dir, name).
func splitEntryPath(rel string) (ext, dir, name string) {
	slash := -1
	for i := len(rel) - 1; i >= 0; i-- {
		if rel[i] == '/' {
			slash = i
			break
		}
	}
	base := rel
	if slash >= 0 {
		dir = rel[:slash]
		base = rel[slash+1:]
	}

	dot := -1
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			dot = i
			break
		}
	}
	if dot > 0 {
		name = base[:dot]
		ext = base[dot+1:]
	} else {
		name = base
	}
	return
}

// countingReader wraps an io.Reader and counts the bytes read through it;
// used to discover a version-0 package's index size, which has no header
// field to declare it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
