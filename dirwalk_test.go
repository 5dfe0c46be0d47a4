package vpk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPackage(t *testing.T) *Package {
	t.Helper()
	tree := NewIndexTree()
	entries := []*Entry{
		{Ext: "wav", Dir: "sound/music", Name: "ding_on"},
		{Ext: "wav", Dir: "sound/music", Name: "ding_off"},
		{Ext: "wav", Dir: "sound/ambient", Name: "wind"},
		{Ext: "txt", Dir: "", Name: "readme"},
	}
	for _, e := range entries {
		require.NoError(t, tree.Insert(e))
	}
	return &Package{Tree: tree}
}

func TestReadDirRoot(t *testing.T) {
	p := newTestPackage(t)
	entries := p.ReadDir("")

	var files, dirs []string
	for _, e := range entries {
		if e.IsDir {
			dirs = append(dirs, e.Name)
		} else {
			files = append(files, e.Name)
		}
	}

	assert.ElementsMatch(t, []string{"readme.txt"}, files)
	assert.ElementsMatch(t, []string{"sound"}, dirs)
}

func TestReadDirNested(t *testing.T) {
	p := newTestPackage(t)
	entries := p.ReadDir("sound")

	var dirs []string
	for _, e := range entries {
		assert.True(t, e.IsDir)
		dirs = append(dirs, e.Name)
	}
	assert.ElementsMatch(t, []string{"music", "ambient"}, dirs)
}

func TestReadDirLeaf(t *testing.T) {
	p := newTestPackage(t)
	entries := p.ReadDir("sound/music")

	var names []string
	for _, e := range entries {
		assert.False(t, e.IsDir)
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"ding_on.wav", "ding_off.wav"}, names)
}
