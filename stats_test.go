package vpk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	p := newTestPackage(t)
	p.Version = 1
	p.Tree.Find("wav", "sound/music", "ding_on").Size = 100
	p.Tree.Find("wav", "sound/music", "ding_on").ArchiveIndex = 0
	p.Tree.Find("wav", "sound/music", "ding_off").Size = 200
	p.Tree.Find("wav", "sound/music", "ding_off").ArchiveIndex = 1
	p.Tree.Find("wav", "sound/ambient", "wind").Inline = []byte{1, 2, 3}
	p.Tree.Find("txt", "", "readme").Inline = []byte("hi")

	st := p.Stats()

	assert.Equal(t, uint32(1), st.Version)
	assert.Equal(t, 4, st.TotalFiles)
	assert.Equal(t, 2, st.InlineOnly) // wind and readme have Size == 0
	assert.Equal(t, int64(5), st.InlineBytes)
	assert.Equal(t, 2, st.ArchiveCount)
	assert.False(t, st.HasV2Md5s)
	assert.False(t, st.HasSignature)

	var wavStats ExtStats
	for _, es := range st.ByExt {
		if es.Ext == "wav" {
			wavStats = es
		}
	}
	assert.Equal(t, 3, wavStats.FileCount)
}
