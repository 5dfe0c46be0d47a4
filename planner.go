package vpk

import (
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// plannedFile is one file the writer has discovered and sized up, before
// storage (inline vs. archive-and-offset) has been assigned.
type plannedFile struct {
	Ext, Dir, Name string
	SourcePath     string
	Size           int64
	CRC            uint32

	inline       bool
	archiveIndex int32
	offset       uint32
}

// scanSourceTree walks srcDir and returns every regular file found, with
// its (ext, dir, name) triple derived by splitting on the base name's last
// dot and replacing host path separators with '/'.
func scanSourceTree(srcDir string) ([]*plannedFile, error) {
	var files []*plannedFile

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ext, dir, name := splitEntryPath(rel)
		if err := validateName(rel, ext, dir, name); err != nil {
			return err
		}

		files = append(files, &plannedFile{
			Ext:        ext,
			Dir:        dir,
			Name:       name,
			SourcePath: path,
			Size:       info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, wrapIo(srcDir, err)
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Ext != b.Ext {
			return a.Ext < b.Ext
		}
		if a.Dir != b.Dir {
			return a.Dir < b.Dir
		}
		return a.Name < b.Name
	})

	return files, nil
}

// validateName rejects names the writer cannot encode: an embedded NUL in
// any path component, which would corrupt the AsciiZ grammar.
func validateName(rel, ext, dir, name string) error {
	for _, s := range [...]string{ext, dir, name} {
		if strings.IndexByte(s, 0) >= 0 {
			return ErrInvalidName{Path: rel, Reason: "contains an embedded NUL byte"}
		}
	}
	if name == "" {
		return ErrInvalidName{Path: rel, Reason: "empty file name"}
	}
	return nil
}

// hashFile computes the IEEE CRC32 of the file at path by streaming it
// through the hash, never holding the whole file in memory.
func hashFile(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, wrapIo(path, err)
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, wrapIo(path, err)
	}
	return h.Sum32(), nil
}

// assignStorage decides, for each planned file in order, whether it is
// inlined (size <= inlineThreshold) or streamed into a sibling archive,
// starting a new archive whenever adding the next file would push the
// current one past archiveSize. archiveSize == 0 means "single archive, no
// cap."
func assignStorage(files []*plannedFile, archiveSize int64, inlineThreshold int64) error {
	var archiveIndex int32
	var offset int64

	for _, pf := range files {
		if pf.Size <= inlineThreshold {
			pf.inline = true
			continue
		}

		if archiveSize > 0 && offset > 0 && offset+pf.Size > archiveSize {
			offset = 0
			archiveIndex++
			if archiveIndex >= EmbeddedArchiveIndex {
				return ErrTooManyArchives
			}
		}

		pf.archiveIndex = archiveIndex
		pf.offset = uint32(offset)
		offset += pf.Size
	}

	return nil
}
