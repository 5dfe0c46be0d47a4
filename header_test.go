package vpk

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadV1HeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeV1Header(&buf, 1234))

	// Matches the fixed S1 fixture: 34 12 AA 55 01 00 00 00 ...
	want := []byte{0x34, 0x12, 0xaa, 0x55, 0x01, 0x00, 0x00, 0x00}
	assert.Equal(t, want, buf.Bytes()[:8])

	hdr, err := readHeader(bufio.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, header{Version: 1, HeaderSize: 12, IndexSize: 1234}, hdr)
}

func TestReadHeaderV0HasNoMagic(t *testing.T) {
	// A v0 file has no header at all; its first bytes are directly the
	// index grammar (an extension AsciiZ string).
	br := bufio.NewReader(bytes.NewReader([]byte("wav\x00")))
	hdr, err := readHeader(br)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), hdr.Version)
	assert.Equal(t, uint32(0), hdr.HeaderSize)

	// readHeader must not have consumed any bytes for a v0 file.
	rest, err := br.Peek(4)
	require.NoError(t, err)
	assert.Equal(t, []byte("wav\x00"), rest)
}

func TestReadHeaderUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x34, 0x12, 0xaa, 0x55})
	buf.Write([]byte{0x05, 0x00, 0x00, 0x00}) // version 5

	_, err := readHeader(bufio.NewReader(bytes.NewReader(buf.Bytes())))
	require.Error(t, err)
	assert.Equal(t, ErrUnsupportedVersion(5), err)
}

func TestReadHeaderTooShortForMagic(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte{0x34, 0x12}))
	hdr, err := readHeader(br)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), hdr.Version)
}
