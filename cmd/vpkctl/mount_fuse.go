//go:build fuse

package main

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/panzi/rust-vpk"
)

// vpkDir is a read-only directory node backed by one Package.ReadDir level.
// It is rebuilt lazily on every Readdir/Lookup rather than cached, since a
// mounted archive is expected to be read occasionally and never to change
// underneath the mount.
type vpkDir struct {
	fs.Inode
	pkg *vpk.Package
	dir string
}

// vpkFile is a read-only file node streaming one Entry's content through
// Package.Extract.
type vpkFile struct {
	fs.Inode
	pkg   *vpk.Package
	entry *vpk.Entry

	once sync.Once
	data []byte
	err  error
}

// contents extracts the entry's full content once and caches it; a FUSE
// file handle is typically read in several chunks and re-extracting on
// every Read call would redo the CRC check each time.
func (f *vpkFile) contents() ([]byte, error) {
	f.once.Do(func() {
		var buf bytes.Buffer
		f.err = f.pkg.Extract(f.entry, &buf)
		f.data = buf.Bytes()
	})
	return f.data, f.err
}

var _ fs.NodeReaddirer = (*vpkDir)(nil)
var _ fs.NodeLookuper = (*vpkDir)(nil)
var _ fs.NodeGetattrer = (*vpkFile)(nil)
var _ fs.NodeOpener = (*vpkFile)(nil)
var _ fs.NodeReader = (*vpkFile)(nil)

func (d *vpkDir) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	children := d.pkg.ReadDir(d.dir)
	list := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		mode := uint32(fuse.S_IFREG)
		if c.IsDir {
			mode = fuse.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: c.Name, Mode: mode})
	}
	return fs.NewListDirStream(list), 0
}

func (d *vpkDir) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	for _, c := range d.pkg.ReadDir(d.dir) {
		if c.Name != name {
			continue
		}
		if c.IsDir {
			child := childPath(d.dir, name)
			node := &vpkDir{pkg: d.pkg, dir: child}
			out.Mode = fuse.S_IFDIR | 0555
			return d.NewInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFDIR}), 0
		}
		out.Mode = fuse.S_IFREG | 0444
		out.Size = uint64(c.Entry.TotalSize())
		node := &vpkFile{pkg: d.pkg, entry: c.Entry}
		return d.NewInode(ctx, node, fs.StableAttr{Mode: fuse.S_IFREG}), 0
	}
	return nil, syscall.ENOENT
}

func (f *vpkFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFREG | 0444
	out.Size = uint64(f.entry.TotalSize())
	return 0
}

func (f *vpkFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, 0, 0
}

func (f *vpkFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := f.contents()
	if err != nil {
		return nil, syscall.EIO
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}

func childPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// doMount opens the archive at path and serves it read-only at mountpoint
// until interrupted, using github.com/hanwen/go-fuse/v2. Every mutating
// operation is rejected with EROFS because the node set above implements no
// write-capable interfaces.
func doMount(path, mountpoint string) int {
	pkg, err := vpk.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: %v\n", err)
		return exitFormatError
	}
	defer pkg.Close()

	root := &vpkDir{pkg: pkg, dir: ""}
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     "vpkfs",
			Name:       "vpkctl",
			AllowOther: false,
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "vpkctl: mount: %v\n", err)
		return exitIoError
	}

	server.Wait()
	return exitOK
}
