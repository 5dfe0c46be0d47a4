package main

import (
	"fmt"

	"github.com/panzi/rust-vpk"
	"gopkg.in/alecthomas/kingpin.v2"
)

type packCmd struct {
	*kingpin.CmdClause
	outPrefix       *string
	srcDir          *string
	archiveSize     *int64
	inlineThreshold *int64
	version         *int
	force           *bool
}

func registerPack(app *kingpin.Application) *packCmd {
	c := &packCmd{CmdClause: app.Command("pack", "Build a VPK archive from a directory tree.")}
	c.outPrefix = c.Arg("outprefix", "output path prefix (produces PREFIX_dir.vpk and PREFIX_NNN.vpk siblings)").Required().String()
	c.srcDir = c.Arg("srcdir", "directory tree to pack").Required().String()
	c.archiveSize = c.Flag("archive-size", "maximum sibling archive size in bytes (0 = unlimited)").Default("-1").Int64()
	c.inlineThreshold = c.Flag("inline-threshold", "largest file size eligible for inlining into the directory file").Default("-1").Int64()
	c.version = c.Flag("version", "directory file format version to emit").Default("-1").Int()
	c.force = c.Flag("force", "overwrite existing output files").Bool()
	return c
}

func (c *packCmd) run() int {
	opts := vpk.DefaultWriterOptions()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: reading config: %v\n", err)
		return exitIoError
	}
	if cfg.Pack.ArchiveSize != nil {
		opts.ArchiveSize = *cfg.Pack.ArchiveSize
	}
	if cfg.Pack.InlineThreshold != nil {
		opts.InlineThreshold = *cfg.Pack.InlineThreshold
	}
	if cfg.Pack.Version != nil {
		opts.Version = uint32(*cfg.Pack.Version)
	}

	// -1 means "flag not passed"; a config-file value or the library
	// default stands. Any value >= 0, including 0 (unlimited), overrides
	// the config file.
	if *c.archiveSize >= 0 {
		opts.ArchiveSize = *c.archiveSize
	}
	if *c.inlineThreshold >= 0 {
		opts.InlineThreshold = *c.inlineThreshold
	}
	if *c.version >= 0 {
		opts.Version = uint32(*c.version)
	}
	opts.Force = *c.force

	result, err := vpk.Pack(*c.outPrefix, *c.srcDir, opts)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitIoError
	}

	fmt.Println(result.Summary())
	return exitOK
}
