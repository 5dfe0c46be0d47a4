package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/panzi/rust-vpk"
	"gopkg.in/alecthomas/kingpin.v2"
)

type listCmd struct {
	*kingpin.CmdClause
	path  *string
	human *bool
}

func registerList(app *kingpin.Application) *listCmd {
	c := &listCmd{CmdClause: app.Command("list", "Enumerate the entries of a VPK archive.")}
	c.path = c.Arg("path", "path to the directory file (*_dir.vpk)").Required().String()
	c.human = c.Flag("human", "render sizes in human-readable units").Short('h').Bool()
	return c
}

func (c *listCmd) run() int {
	pkg, err := vpk.Open(*c.path)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitFormatError
	}
	defer pkg.Close()

	for _, e := range pkg.Iter() {
		size := fmt.Sprintf("%d", e.TotalSize())
		if *c.human {
			size = humanize.Bytes(uint64(e.TotalSize()))
		}
		fmt.Printf("%-60s %10s  crc=%08x  archive=%d  offset=%d\n",
			e.Path(), size, e.CRC, e.ArchiveIndex, e.Offset)
	}
	return exitOK
}
