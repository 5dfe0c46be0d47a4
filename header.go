package vpk

import (
	"bufio"
	"io"

	"github.com/panzi/rust-vpk/internal/wire"
)

// magic is the four-byte little-endian word 0x55AA1234 that marks a v1 or
// v2 directory file. Its byte pattern is implausible as ASCII pathname
// characters, which the format's author considered a sufficient guard
// against a version-0 file accidentally beginning with it.
const magic = 0x55aa1234

// header holds the parsed fixed-size preamble of a directory file. For
// version 0 there is no on-disk header at all; HeaderSize is 0, the index
// size is inferred by OpenWith after the index is drained, and there are no
// trailer sections.
type header struct {
	Version        uint32
	HeaderSize     uint32 // 0, 12, or 28
	IndexSize      uint32
	DataSize       uint32 // v2 only
	ArchiveMd5Size uint32 // v2 only
	OtherMd5Size   uint32 // v2 only
	SignatureSize  uint32 // v2 only
}

// readHeader detects the format version from the first four bytes of br and
// decodes the fixed header fields that follow, if any.
func readHeader(br *bufio.Reader) (header, error) {
	peek, err := br.Peek(4)
	if err != nil && len(peek) < 4 {
		// Fewer than 4 bytes total: definitely not a v1/v2 magic, treat
		// as a (possibly empty) v0 file and let the index reader fail
		// naturally if it's truly empty.
		return header{Version: 0}, nil
	}

	if !(len(peek) == 4 && peek[0] == 0x34 && peek[1] == 0x12 && peek[2] == 0xaa && peek[3] == 0x55) {
		return header{Version: 0}, nil
	}

	if _, err := wire.ReadU32(br); err != nil {
		return header{}, err
	}

	version, err := wire.ReadU32(br)
	if err != nil {
		return header{}, err
	}

	switch version {
	case 1:
		indexSize, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		return header{Version: 1, HeaderSize: 12, IndexSize: indexSize}, nil
	case 2:
		indexSize, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		dataSize, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		archiveMd5Size, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		otherMd5Size, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		signatureSize, err := wire.ReadU32(br)
		if err != nil {
			return header{}, err
		}
		return header{
			Version:        2,
			HeaderSize:     28,
			IndexSize:      indexSize,
			DataSize:       dataSize,
			ArchiveMd5Size: archiveMd5Size,
			OtherMd5Size:   otherMd5Size,
			SignatureSize:  signatureSize,
		}, nil
	default:
		return header{}, ErrUnsupportedVersion(version)
	}
}

// writeV1Header emits the 12-byte v1 header: magic, version, index size.
func writeV1Header(w io.Writer, indexSize uint32) error {
	if err := wire.WriteU32(w, magic); err != nil {
		return err
	}
	if err := wire.WriteU32(w, 1); err != nil {
		return err
	}
	return wire.WriteU32(w, indexSize)
}
