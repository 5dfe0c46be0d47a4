package main

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// stdout returns an io.Writer over os.Stdout with ANSI passthrough enabled
// on Windows consoles, and colorEnabled reports whether stdout is actually a
// terminal (so color codes are suppressed when output is redirected to a
// file or pipe).
func stdout() (io.Writer, bool) {
	return colorable.NewColorable(os.Stdout), isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func colorize(enabled bool, code, s string) string {
	if !enabled {
		return s
	}
	return code + s + ansiReset
}
