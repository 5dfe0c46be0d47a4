// Command vpkctl inspects, verifies, packs, and unpacks VPK archives.
package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Exit codes per the CLI's documented contract: 0 ok, 1 verification
// failure, 2 format error, 3 I/O error.
const (
	exitOK           = 0
	exitVerifyFailed = 1
	exitFormatError  = 2
	exitIoError      = 3
)

var app = kingpin.New("vpkctl", "Inspect, verify, pack, and unpack VPK archives.")
var stderr = os.Stderr

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmdList := registerList(app)
	cmdCheck := registerCheck(app)
	cmdUnpack := registerUnpack(app)
	cmdPack := registerPack(app)
	cmdStats := registerStats(app)
	cmdMount := registerMount(app)

	cmd, err := app.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFormatError
	}

	switch cmd {
	case cmdList.FullCommand():
		return cmdList.run()
	case cmdCheck.FullCommand():
		return cmdCheck.run()
	case cmdUnpack.FullCommand():
		return cmdUnpack.run()
	case cmdPack.FullCommand():
		return cmdPack.run()
	case cmdStats.FullCommand():
		return cmdStats.run()
	case cmdMount.FullCommand():
		return cmdMount.run()
	default:
		fmt.Fprintf(os.Stderr, "vpkctl: unknown command %q\n", cmd)
		return exitFormatError
	}
}
