package vpk

import (
	"hash/crc32"
	"io"
)

// crcMismatchRaw is crcReader's path-less mismatch error; callers that know
// which entry was being read wrap it into ErrCrcMismatch with the path
// attached.
type crcMismatchRaw struct {
	Expected, Actual uint32
}

func (err crcMismatchRaw) Error() string {
	return "vpk: CRC mismatch"
}

// crcReader returns an io.ReadCloser where Read delegates to r and Close
// calls closeFn and then returns crcMismatchRaw if the IEEE CRC32 of every
// byte read from r does not match crc.
func crcReader(r io.Reader, closeFn func() error, crc uint32) io.ReadCloser {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)
	wrapped := func() error {
		if err := closeFn(); err != nil {
			return err
		}
		if actual := hash.Sum32(); actual != crc {
			return crcMismatchRaw{Actual: actual, Expected: crc}
		}
		return nil
	}

	return readerCloser{r, wrapped}
}

type readerCloser struct {
	io.Reader
	close func() error
}

func (r readerCloser) Close() error {
	return r.close()
}
