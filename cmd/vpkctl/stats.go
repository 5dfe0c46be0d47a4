package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/panzi/rust-vpk"
	"gopkg.in/alecthomas/kingpin.v2"
)

type statsCmd struct {
	*kingpin.CmdClause
	path  *string
	human *bool
}

func registerStats(app *kingpin.Application) *statsCmd {
	c := &statsCmd{CmdClause: app.Command("stats", "Summarize an archive's contents.")}
	c.path = c.Arg("path", "path to the directory file (*_dir.vpk)").Required().String()
	c.human = c.Flag("human", "render byte counts in human-readable units").Short('h').Bool()
	return c
}

func (c *statsCmd) run() int {
	pkg, err := vpk.Open(*c.path)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitFormatError
	}
	defer pkg.Close()

	st := pkg.Stats()
	size := func(n int64) string {
		if *c.human {
			return humanize.Bytes(uint64(n))
		}
		return fmt.Sprintf("%d", n)
	}

	fmt.Printf("version:       %d\n", st.Version)
	fmt.Printf("total files:   %d\n", st.TotalFiles)
	fmt.Printf("inline only:   %d\n", st.InlineOnly)
	fmt.Printf("inline bytes:  %s\n", size(st.InlineBytes))
	fmt.Printf("archives used: %d\n", st.ArchiveCount)
	fmt.Printf("v2 MD5s:       %v\n", st.HasV2Md5s)
	fmt.Printf("signature:     %v\n", st.HasSignature)
	fmt.Println("by extension:")
	for _, es := range st.ByExt {
		ext := es.Ext
		if ext == "" {
			ext = "(none)"
		}
		fmt.Printf("  %-16s %6d files  %s\n", ext, es.FileCount, size(es.TotalBytes))
	}

	return exitOK
}
