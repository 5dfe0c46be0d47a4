package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// packConfig holds the optional defaults vpkctl.toml supplies for the pack
// subcommand's flags. All fields are pointers so the loader can tell "not
// present in the file" apart from "present with the zero value"; a flag
// explicitly passed on the command line always wins over the file.
type packConfig struct {
	ArchiveSize     *int64 `toml:"archive_size"`
	InlineThreshold *int64 `toml:"inline_threshold"`
	Version         *int64 `toml:"version"`
}

type fileConfig struct {
	Pack packConfig `toml:"pack"`
}

// loadConfig looks for vpkctl.toml next to the running binary, or at the
// path named by $VPKCTL_CONFIG if set. Its absence is not an error; every
// other parse failure is returned to the caller.
func loadConfig() (*fileConfig, error) {
	path := os.Getenv("VPKCTL_CONFIG")
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return &fileConfig{}, nil
		}
		path = filepath.Join(filepath.Dir(exe), "vpkctl.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &fileConfig{}, nil
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
