package vpk

import (
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourceFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

// TestPackOpenRoundTrip packs a small source tree, reopens it, and checks
// that every entry, its content, and its CRC survive the round trip. The
// fixture content mirrors the canonical example VPK directory: a RIFF/WAVE
// stub whose directory file begins with the expected magic and version.
func TestPackOpenRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	wavContent := []byte("RIFF\x00\x00\x00\x00WAVE")
	txtContent := []byte("hello, vpk world\n")

	writeSourceFile(t, srcDir, "sound/music/ding_on.wav", wavContent)
	writeSourceFile(t, srcDir, "readme.txt", txtContent)

	outPrefix := filepath.Join(outDir, "pak01")
	result, err := Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesWritten)

	dirFile := outPrefix + "_dir.vpk"
	raw, err := os.ReadFile(dirFile)
	require.NoError(t, err)
	require.True(t, len(raw) >= 8)
	assert.Equal(t, []byte{0x34, 0x12, 0xaa, 0x55, 0x01, 0x00, 0x00, 0x00}, raw[:8])

	pkg, err := Open(dirFile)
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, uint32(1), pkg.Version)
	assert.Equal(t, 2, pkg.Tree.Len())

	wavEntry := pkg.Entry("sound/music/ding_on.wav")
	require.NotNil(t, wavEntry)
	assert.Equal(t, crc32.ChecksumIEEE(wavContent), wavEntry.CRC)

	var buf bytes.Buffer
	require.NoError(t, pkg.Extract(wavEntry, &buf))
	assert.Equal(t, wavContent, buf.Bytes())

	txtEntry := pkg.Entry("readme.txt")
	require.NotNil(t, txtEntry)
	buf.Reset()
	require.NoError(t, pkg.Extract(txtEntry, &buf))
	assert.Equal(t, txtContent, buf.Bytes())

	failures, err := pkg.Check(IntegrityOptions{})
	require.NoError(t, err)
	assert.Empty(t, failures)

	st := pkg.Stats()
	assert.Equal(t, 2, st.TotalFiles)
}

func TestPackOpenDetectsCorruption(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeSourceFile(t, srcDir, "data/blob.bin", bytes.Repeat([]byte{0x42}, 4096))

	outPrefix := filepath.Join(outDir, "pak01")
	_, err := Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.NoError(t, err)

	archivePath := outPrefix + "_000.vpk"
	raw, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	raw[0] ^= 0xff
	require.NoError(t, os.WriteFile(archivePath, raw, 0644))

	pkg, err := Open(outPrefix + "_dir.vpk")
	require.NoError(t, err)
	defer pkg.Close()

	failures, err := pkg.Check(IntegrityOptions{})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.NotNil(t, failures[0].Entry)
}

func TestPackInlinesEmptyFiles(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	writeSourceFile(t, srcDir, "empty.txt", nil)

	outPrefix := filepath.Join(outDir, "pak01")
	_, err := Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.NoError(t, err)

	pkg, err := Open(outPrefix + "_dir.vpk")
	require.NoError(t, err)
	defer pkg.Close()

	e := pkg.Entry("empty.txt")
	require.NotNil(t, e)
	assert.Equal(t, uint32(0), e.Size)
	assert.Equal(t, int32(EmbeddedArchiveIndex), e.ArchiveIndex)

	var buf bytes.Buffer
	require.NoError(t, pkg.Extract(e, &buf))
	assert.Empty(t, buf.Bytes())
}

func TestPackRefusesExistingFilesWithoutForce(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeSourceFile(t, srcDir, "a.txt", []byte("x"))

	outPrefix := filepath.Join(outDir, "pak01")
	_, err := Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.NoError(t, err)

	_, err = Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.Error(t, err)
}

// TestOpenV0InfersIndexSizeExactly builds a hand-crafted version-0 file
// (spec §4.6, scenario S6): a bare index with no header, immediately
// followed by an embedded data region. The only way to locate that data
// region correctly is to infer the index's exact length while draining its
// grammar; over-counting by even one buffered byte would make the embedded
// entry's body read from the wrong offset.
func TestOpenV0InfersIndexSizeExactly(t *testing.T) {
	tree := NewIndexTree()
	body := bytes.Repeat([]byte("v0-embedded-body-bytes-"), 300) // > one bufio buffer

	require.NoError(t, tree.Insert(&Entry{
		Ext: "bin", Dir: "data", Name: "blob",
		CRC:          crc32.ChecksumIEEE(body),
		ArchiveIndex: EmbeddedArchiveIndex,
		Offset:       0,
		Size:         uint32(len(body)),
	}))

	var indexBuf bytes.Buffer
	require.NoError(t, serializeIndex(&indexBuf, tree))

	var fileBuf bytes.Buffer
	fileBuf.Write(indexBuf.Bytes())
	fileBuf.Write(body)

	dir := t.TempDir()
	path := filepath.Join(dir, "combined.vpk")
	require.NoError(t, os.WriteFile(path, fileBuf.Bytes(), 0644))

	pkg, err := Open(path)
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, uint32(0), pkg.Version)
	assert.Equal(t, uint32(indexBuf.Len()), pkg.indexSize)

	e := pkg.Entry("data/blob.bin")
	require.NotNil(t, e)

	var buf bytes.Buffer
	require.NoError(t, pkg.Extract(e, &buf))
	assert.Equal(t, body, buf.Bytes())
}

func TestOpenMissingArchive(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	writeSourceFile(t, srcDir, "a.txt", bytes.Repeat([]byte{0x7}, 1024))

	outPrefix := filepath.Join(outDir, "pak01")
	_, err := Pack(outPrefix, srcDir, DefaultWriterOptions())
	require.NoError(t, err)

	require.NoError(t, os.Remove(outPrefix+"_000.vpk"))

	pkg, err := Open(outPrefix + "_dir.vpk")
	require.NoError(t, err)
	defer pkg.Close()

	e := pkg.Entry("a.txt")
	require.NotNil(t, e)

	var buf bytes.Buffer
	err = pkg.Extract(e, &buf)
	require.Error(t, err)
	assert.IsType(t, ErrMissingArchive(0), err)
}
