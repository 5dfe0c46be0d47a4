// Package wire implements the little-endian primitive codec used by the VPK
// directory file format: fixed-width integers and NUL-terminated ASCII
// strings read from or written to a byte stream.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// ErrEmbeddedNUL is returned by WriteAsciiZ when the string to write
// contains a NUL byte, which would truncate the on-disk string.
var ErrEmbeddedNUL = errors.New("wire: string contains embedded NUL byte")

// ReadU16 reads a little-endian uint16.
func ReadU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32 reads a little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteU16 writes a little-endian uint16.
func WriteU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteU32 writes a little-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadAsciiZ reads bytes up to and including a NUL terminator and returns the
// bytes before the NUL. It fails with io.ErrUnexpectedEOF if EOF is reached
// before a NUL is seen. No UTF-8 validation is performed; any byte value is
// accepted, matching the byte-oriented ASCII the format actually contains.
func ReadAsciiZ(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return s[:len(s)-1], nil
}

// WriteAsciiZ writes s followed by a NUL terminator. It fails if s contains
// an embedded NUL byte.
func WriteAsciiZ(w io.Writer, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return ErrEmbeddedNUL
		}
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}
