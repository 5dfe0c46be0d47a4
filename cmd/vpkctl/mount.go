package main

import (
	"gopkg.in/alecthomas/kingpin.v2"
)

type mountCmd struct {
	*kingpin.CmdClause
	path       *string
	mountpoint *string
}

func registerMount(app *kingpin.Application) *mountCmd {
	c := &mountCmd{CmdClause: app.Command("mount", "Mount a VPK archive read-only via FUSE.")}
	c.path = c.Arg("path", "path to the directory file (*_dir.vpk)").Required().String()
	c.mountpoint = c.Arg("mountpoint", "directory to mount the archive at").Required().String()
	return c
}

func (c *mountCmd) run() int {
	return doMount(*c.path, *c.mountpoint)
}
