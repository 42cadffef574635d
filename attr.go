package ghostfs

import (
	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/clustercache"
	"github.com/dargueta/ghostfs/internal/direntry"
)

// Attr describes one file or directory's metadata, per spec.md §4.9.
// Every object shares the same owner/group/mtime, taken from the mount's
// MountOptions, since the on-disk format carries no per-entry timestamps
// or permission bits.
type Attr struct {
	Mode  uint32
	Size  uint32
	UID   uint32
	GID   uint32
	MTime int64
}

// StatVFS summarizes filesystem-wide usage, the GhostFS analog of POSIX
// statvfs(2).
type StatVFS struct {
	// BlockSize is the cluster size in bytes.
	BlockSize uint32
	// Blocks is the total cluster count, including cluster 0.
	Blocks uint64
	// BlocksFree is the number of unallocated clusters.
	BlocksFree uint64
	// Files is the number of live directory entries currently stored,
	// counted by walking the tree (resolving the Open Question left by
	// spec.md §4.9 in favor of an accurate count over a fixed guess).
	Files uint64
	// NameMax is the longest filename accepted, in bytes.
	NameMax uint32
}

// Getattr resolves path and returns its metadata.
func (fs *Filesystem) Getattr(path string) (Attr, errors.DriverError) {
	it, err := fs.lookup(path, false)
	if err != nil {
		return Attr{}, err
	}

	e, err := it.entry()
	if err != nil {
		return Attr{}, err
	}

	return fs.attrFromEntry(e), nil
}

func (fs *Filesystem) attrFromEntry(e direntry.Entry) Attr {
	mode := uint32(modeIRUSR | modeIWUSR)
	var size uint32
	if e.IsDir() {
		mode |= modeIFDIR | modeIXUSR
	} else {
		mode |= modeIFREG
		size = e.ByteSize()
	}

	return Attr{
		Mode:  mode,
		Size:  size,
		UID:   fs.opts.UID,
		GID:   fs.opts.GID,
		MTime: fs.opts.MountTime.Unix(),
	}
}

// Statvfs reports aggregate usage across the mounted image.
func (fs *Filesystem) Statvfs() (StatVFS, errors.DriverError) {
	count, err := fs.countEntries(0)
	if err != nil {
		return StatVFS{}, err
	}

	return StatVFS{
		BlockSize:  clustercache.Size,
		Blocks:     uint64(fs.clusterCount),
		BlocksFree: uint64(fs.alloc.FreeClusters()),
		Files:      count,
		NameMax:    direntry.MaxNameLength,
	}, nil
}

// countEntries recursively counts every live entry (files and
// directories alike) reachable from the directory starting at
// clusterIdx, not including the synthetic root itself.
func (fs *Filesystem) countEntries(clusterIdx uint16) (uint64, errors.DriverError) {
	var total uint64

	it := fs.initDir(clusterIdx)
	for {
		e, err := it.entry()
		if err != nil {
			return 0, err
		}
		if e.Used() {
			total++
			if e.IsDir() {
				sub, err := fs.countEntries(e.Cluster)
				if err != nil {
					return 0, err
				}
				total += sub
			}
		}

		if err := it.next(); err != nil {
			if err.Kind() == errors.ErrNotFound {
				return total, nil
			}
			return 0, err
		}
	}
}
