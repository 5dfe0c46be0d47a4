package vpk

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile is a non-*os.File File implementation, used to exercise the
// locator's ReaderAt fallback path (no memory mapping attempted).
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

type memOpener struct {
	main     []byte
	archives map[int32][]byte
}

func (o memOpener) Main() (File, error) {
	return memFile{bytes.NewReader(o.main)}, nil
}

func (o memOpener) Archive(index int32) (File, error) {
	b, ok := o.archives[index]
	if !ok {
		return nil, ErrMissingArchive(index)
	}
	return memFile{bytes.NewReader(b)}, nil
}

func TestLocatorOpenRangeSibling(t *testing.T) {
	opener := memOpener{
		main:     []byte("dir-file-contents"),
		archives: map[int32][]byte{0: []byte("0123456789")},
	}
	l := newLocator(opener, "pak_dir.vpk")
	defer l.Close()

	r, closeFn, err := l.openRange(0, 3, 4, 12, 5, false)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(got))
	require.NoError(t, closeFn())
}

func TestLocatorOpenRangeEmbeddedAdjusts(t *testing.T) {
	main := []byte("HHHHHHHHHHHHIIIIIpayload-data-here")
	opener := memOpener{main: main}
	l := newLocator(opener, "single.vpk")
	defer l.Close()

	// headerSize=12, indexSize=5; offset 0 relative to data should land
	// right after them.
	r, _, err := l.openRange(EmbeddedArchiveIndex, 0, 7, 12, 5, false)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestLocatorOpenRangeEmbeddedRawOffset(t *testing.T) {
	main := []byte("HHHHHHHHHHHHIIIIIpayload-data-here")
	opener := memOpener{main: main}
	l := newLocator(opener, "single.vpk")
	defer l.Close()

	// adjustRaw=true: offset is treated as absolute, no header+index added.
	r, _, err := l.openRange(EmbeddedArchiveIndex, 17, 7, 12, 5, true)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestLocatorOpenRangeTruncated(t *testing.T) {
	opener := memOpener{archives: map[int32][]byte{0: []byte("short")}}
	l := newLocator(opener, "pak_dir.vpk")
	defer l.Close()

	_, _, err := l.openRange(0, 0, 100, 0, 0, false)
	require.Error(t, err)
	var trunc ErrTruncatedArchive
	require.ErrorAs(t, err, &trunc)
}

func TestLocatorCachesHandles(t *testing.T) {
	opener := memOpener{archives: map[int32][]byte{0: []byte("0123456789")}}
	l := newLocator(opener, "pak_dir.vpk")
	defer l.Close()

	h1, err := l.handle(0)
	require.NoError(t, err)
	h2, err := l.handle(0)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}
