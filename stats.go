package vpk

// ExtStats summarizes the files of one extension group.
type ExtStats struct {
	Ext        string
	FileCount  int
	TotalBytes int64
}

// PackageStats is a derived, non-persisted summary of an opened Package,
// computed on demand by walking its index tree.
type PackageStats struct {
	Version       uint32
	TotalFiles    int
	InlineOnly    int // files fully represented by their inline prefix (Size == 0)
	InlineBytes   int64
	ArchiveCount  int // distinct sibling archive indices referenced
	HasV2Md5s     bool
	HasSignature  bool
	ByExt         []ExtStats
}

// Stats computes a PackageStats snapshot of p.
func (p *Package) Stats() PackageStats {
	st := PackageStats{Version: p.Version}

	extIndex := make(map[string]int)
	archives := make(map[int32]bool)

	for _, e := range p.Tree.Entries() {
		st.TotalFiles++
		st.InlineBytes += int64(len(e.Inline))
		if e.Size == 0 {
			st.InlineOnly++
		} else if e.ArchiveIndex != EmbeddedArchiveIndex {
			archives[e.ArchiveIndex] = true
		}

		if i, ok := extIndex[e.Ext]; ok {
			st.ByExt[i].FileCount++
			st.ByExt[i].TotalBytes += e.TotalSize()
		} else {
			extIndex[e.Ext] = len(st.ByExt)
			st.ByExt = append(st.ByExt, ExtStats{Ext: e.Ext, FileCount: 1, TotalBytes: e.TotalSize()})
		}
	}

	st.ArchiveCount = len(archives)
	st.HasV2Md5s = p.OtherMd5s != nil
	st.HasSignature = p.Signature != nil && (len(p.Signature.PublicKey) > 0 || len(p.Signature.Signature) > 0)

	return st
}
