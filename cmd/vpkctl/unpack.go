package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/panzi/rust-vpk"
	"gopkg.in/alecthomas/kingpin.v2"
)

type unpackCmd struct {
	*kingpin.CmdClause
	path    *string
	outDir  *string
	filter  *string
	force   *bool
}

func registerUnpack(app *kingpin.Application) *unpackCmd {
	c := &unpackCmd{CmdClause: app.Command("unpack", "Extract every entry of a VPK archive to a directory tree.")}
	c.path = c.Arg("path", "path to the directory file (*_dir.vpk)").Required().String()
	c.outDir = c.Flag("out", "destination directory").Short('o').Required().String()
	c.filter = c.Flag("filter", "only extract paths matching this glob").String()
	c.force = c.Flag("force", "overwrite existing files").Bool()
	return c
}

func (c *unpackCmd) run() int {
	pkg, err := vpk.Open(*c.path)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitFormatError
	}
	defer pkg.Close()

	var matcher glob.Glob
	if *c.filter != "" {
		matcher, err = glob.Compile(*c.filter, '/')
		if err != nil {
			fmt.Fprintf(stderr, "vpkctl: bad --filter: %v\n", err)
			return exitFormatError
		}
	}

	for _, e := range pkg.Iter() {
		rel := e.Path()
		if matcher != nil && !matcher.Match(rel) {
			continue
		}

		dest := filepath.Join(*c.outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			fmt.Fprintf(stderr, "vpkctl: %v\n", err)
			return exitIoError
		}

		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if !*c.force {
			flags |= os.O_EXCL
		}
		f, err := os.OpenFile(dest, flags, 0644)
		if err != nil {
			fmt.Fprintf(stderr, "vpkctl: %s: %v\n", dest, err)
			return exitIoError
		}

		if err := pkg.Extract(e, f); err != nil {
			f.Close()
			fmt.Fprintf(stderr, "vpkctl: %s: %v\n", rel, err)
			return exitVerifyFailed
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(stderr, "vpkctl: %s: %v\n", dest, err)
			return exitIoError
		}
	}

	return exitOK
}
