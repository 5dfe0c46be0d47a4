package vpk

import (
	"crypto/md5"
	"io"
	"sort"
)

// IntegrityOptions tunes the integrity engine. The zero value is the
// spec-recommended conservative default.
type IntegrityOptions struct {
	// AdjustEmbeddedSlices controls how an ArchiveMd5Entry whose
	// ArchiveIndex is EmbeddedArchiveIndex is located: false (default)
	// treats its Offset as a raw directory-file offset; true adjusts it
	// by headerSize+indexSize the same way file entries are. The spec
	// leaves this unresolved and asks implementations not to silently
	// guess — see DESIGN.md.
	AdjustEmbeddedSlices bool

	// SkipCRC, SkipArchiveMd5, SkipOtherMd5 individually disable the
	// three checks, which are otherwise all run.
	SkipCRC        bool
	SkipArchiveMd5 bool
	SkipOtherMd5   bool
}

// IntegrityFailure is one finding from Package.Check: either a CRC mismatch
// (Entry non-nil) or an MD5 mismatch (Where describes which digest).
type IntegrityFailure struct {
	Entry *Entry
	Where Md5Location
	Err   error
}

// Check runs every enabled integrity check over p and returns every
// failure found; it does not stop at the first one. Results are sorted by
// (archive_index, offset) per the spec's ordering guarantee.
func (p *Package) Check(opts IntegrityOptions) ([]IntegrityFailure, error) {
	var failures []IntegrityFailure

	if !opts.SkipCRC {
		crcFailures, err := p.checkCRCs()
		if err != nil {
			return nil, err
		}
		failures = append(failures, crcFailures...)
	}

	if p.Version == 2 {
		if !opts.SkipArchiveMd5 {
			f, err := p.checkArchiveMd5s(opts.AdjustEmbeddedSlices)
			if err != nil {
				return nil, err
			}
			failures = append(failures, f...)
		}
		if !opts.SkipOtherMd5 {
			f, err := p.checkOtherMd5s()
			if err != nil {
				return nil, err
			}
			failures = append(failures, f...)
		}
	}

	sort.SliceStable(failures, func(i, j int) bool {
		ai, oi := failureOrderKey(failures[i])
		aj, oj := failureOrderKey(failures[j])
		if ai != aj {
			return ai < aj
		}
		return oi < oj
	})

	return failures, nil
}

func failureOrderKey(f IntegrityFailure) (archiveIndex int32, offset uint32) {
	if f.Entry != nil {
		return f.Entry.ArchiveIndex, f.Entry.Offset
	}
	return f.Where.ArchiveIndex, f.Where.Offset
}

func (p *Package) checkCRCs() ([]IntegrityFailure, error) {
	var failures []IntegrityFailure
	for _, e := range p.Tree.Entries() {
		r, err := p.openEntry(e)
		if err != nil {
			return nil, err
		}
		_, copyErr := io.Copy(io.Discard, r)
		closeErr := r.Close()
		if copyErr != nil {
			r.Close()
			return nil, wrapIo(e.Path(), copyErr)
		}
		if mm, ok := closeErr.(crcMismatchRaw); ok {
			failures = append(failures, IntegrityFailure{
				Entry: e,
				Err:   ErrCrcMismatch{Path: e.Path(), Expected: mm.Expected, Actual: mm.Actual},
			})
		} else if closeErr != nil {
			return nil, closeErr
		}
	}
	return failures, nil
}

func (p *Package) checkArchiveMd5s(adjustEmbedded bool) ([]IntegrityFailure, error) {
	var failures []IntegrityFailure
	for _, amd5 := range p.ArchiveMd5s {
		r, _, err := p.locator.openRange(amd5.ArchiveIndex, amd5.Offset, amd5.Size, p.headerSize, p.indexSize, !adjustEmbedded)
		if err != nil {
			return nil, err
		}
		h := md5.New()
		if _, err := io.Copy(h, r); err != nil {
			return nil, wrapIo(p.Path, err)
		}
		var actual [16]byte
		copy(actual[:], h.Sum(nil))
		if actual != amd5.Digest {
			where := Md5Location{Which: "slice", ArchiveIndex: amd5.ArchiveIndex, Offset: amd5.Offset, Size: amd5.Size}
			failures = append(failures, IntegrityFailure{
				Where: where,
				Err:   ErrMd5Mismatch{Where: where, Expected: amd5.Digest, Actual: actual},
			})
		}
	}
	return failures, nil
}

func (p *Package) checkOtherMd5s() ([]IntegrityFailure, error) {
	if p.OtherMd5s == nil {
		return nil, nil
	}
	var failures []IntegrityFailure

	if actual := md5.Sum(p.indexBytes); actual != p.OtherMd5s.IndexMd5 {
		where := Md5Location{Which: "index"}
		failures = append(failures, IntegrityFailure{Where: where, Err: ErrMd5Mismatch{Where: where, Expected: p.OtherMd5s.IndexMd5, Actual: actual}})
	}

	if actual := md5.Sum(p.archiveMd5Bytes); actual != p.OtherMd5s.ArchiveMd5sMd5 {
		where := Md5Location{Which: "archive_md5s"}
		failures = append(failures, IntegrityFailure{Where: where, Err: ErrMd5Mismatch{Where: where, Expected: p.OtherMd5s.ArchiveMd5sMd5, Actual: actual}})
	}

	actual, err := p.computeEverythingMd5()
	if err != nil {
		return nil, err
	}
	if actual != p.OtherMd5s.EverythingMd5 {
		where := Md5Location{Which: "everything"}
		failures = append(failures, IntegrityFailure{Where: where, Err: ErrMd5Mismatch{Where: where, Expected: p.OtherMd5s.EverythingMd5, Actual: actual}})
	}

	return failures, nil
}

// computeEverythingMd5 hashes every byte of the directory file from offset 0
// up to (but not including) the EverythingMd5 field itself: header + index +
// embedded data + archive-md5 table + the first 32 bytes of OtherMd5s.
func (p *Package) computeEverythingMd5() ([16]byte, error) {
	f, err := openDirFileForRead(p)
	if err != nil {
		return [16]byte{}, err
	}
	defer f.Close()

	upto := int64(p.headerSize) + int64(p.indexSize) + int64(p.dataSize) + int64(len(p.archiveMd5Bytes)) + 32

	h := md5.New()
	if _, err := io.CopyN(h, f, upto); err != nil {
		return [16]byte{}, wrapIo(p.Path, err)
	}
	var sum [16]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

func openDirFileForRead(p *Package) (io.ReadCloser, error) {
	h, err := p.locator.handle(EmbeddedArchiveIndex)
	if err != nil {
		return nil, err
	}
	return &handleReader{h: h}, nil
}

// handleReader adapts an archiveHandle (ReaderAt-based or mmap-based) to a
// sequential io.ReadCloser starting at offset 0, for computeEverythingMd5's
// single linear pass.
type handleReader struct {
	h   *archiveHandle
	off int64
}

func (r *handleReader) Read(p []byte) (int, error) {
	n, err := r.h.readAt(p, r.off)
	r.off += int64(n)
	return n, err
}

func (r *handleReader) Close() error { return nil }
