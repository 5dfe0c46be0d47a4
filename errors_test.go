package vpk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a/b.txt", joinPath("txt", "a", "b"))
	assert.Equal(t, "b.txt", joinPath("txt", "", "b"))
	assert.Equal(t, "a/b", joinPath("", "a", "b"))
	assert.Equal(t, "b", joinPath("", "", "b"))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, ErrUnsupportedVersion(7).Error(), "7")
	assert.Contains(t, ErrTruncatedArchive{ArchiveIndex: 2, Want: 10, Got: 4}.Error(), "archive 2")
	assert.Contains(t, ErrBadTerminator{Expected: 0xffff, Got: 0}.Error(), "0xffff")
	assert.Contains(t, ErrDuplicateEntry{Ext: "txt", Dir: "a", Name: "b"}.Error(), "a/b.txt")
	assert.Contains(t, ErrMissingArchive(3).Error(), "003")
	assert.Contains(t, ErrCrcMismatch{Path: "a.txt", Expected: 1, Actual: 2}.Error(), "a.txt")
	assert.Contains(t, ErrInvalidName{Path: "x", Reason: "bad"}.Error(), "bad")
}

func TestMd5LocationString(t *testing.T) {
	assert.Equal(t, "index", Md5Location{Which: "index"}.String())
	slice := Md5Location{Which: "slice", ArchiveIndex: 1, Offset: 10, Size: 5}
	assert.Equal(t, "archive 1 slice [10,15)", slice.String())
}

func TestWrapIoPreservesCause(t *testing.T) {
	orig := errors.New("disk exploded")
	wrapped := wrapIo("foo.vpk", orig)
	assert.Equal(t, orig, errors.Cause(wrapped))
	assert.Nil(t, wrapIo("foo.vpk", nil))
}
