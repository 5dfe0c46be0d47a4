package main

import (
	"fmt"

	"github.com/panzi/rust-vpk"
	"gopkg.in/alecthomas/kingpin.v2"
)

type checkCmd struct {
	*kingpin.CmdClause
	path                 *string
	adjustEmbeddedSlices *bool
	skipCRC              *bool
	skipArchiveMd5       *bool
	skipOtherMd5         *bool
}

func registerCheck(app *kingpin.Application) *checkCmd {
	c := &checkCmd{CmdClause: app.Command("check", "Verify an archive's CRC32 and (v2) MD5 digests.")}
	c.path = c.Arg("path", "path to the directory file (*_dir.vpk)").Required().String()
	c.adjustEmbeddedSlices = c.Flag("adjust-embedded-slices", "treat archive-md5 offsets for archive 0x7fff as relative to the data section instead of the raw file").Bool()
	c.skipCRC = c.Flag("skip-crc", "skip the per-entry CRC32 check").Bool()
	c.skipArchiveMd5 = c.Flag("skip-archive-md5", "skip the v2 archive-md5 slice check").Bool()
	c.skipOtherMd5 = c.Flag("skip-other-md5", "skip the v2 index/archive-md5s/everything digests").Bool()
	return c
}

func (c *checkCmd) run() int {
	pkg, err := vpk.Open(*c.path)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitFormatError
	}
	defer pkg.Close()

	failures, err := pkg.Check(vpk.IntegrityOptions{
		AdjustEmbeddedSlices: *c.adjustEmbeddedSlices,
		SkipCRC:              *c.skipCRC,
		SkipArchiveMd5:       *c.skipArchiveMd5,
		SkipOtherMd5:         *c.skipOtherMd5,
	})
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitIoError
	}

	out, colorEnabled := stdout()
	for _, f := range failures {
		label := "entry"
		if f.Entry != nil {
			label = f.Entry.Path()
		} else {
			label = f.Where.String()
		}
		fmt.Fprintf(out, "%s: %s\n", colorize(colorEnabled, ansiRed, "FAIL"), label)
	}

	if len(failures) == 0 {
		fmt.Fprintf(out, "%s: %s\n", colorize(colorEnabled, ansiGreen, "OK"), *c.path)
		return exitOK
	}
	return exitVerifyFailed
}
