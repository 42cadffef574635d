package ghostfs

import (
	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/clustercache"
)

// FileHandle represents an open regular file. It holds the dirIter for the
// file's directory entry so writes can update the stored size and first
// cluster in place, mirroring spec.md §4.7.
type FileHandle struct {
	fs   *Filesystem
	it   *dirIter
	path string
}

// sizeToClusters returns how many clusters are needed to hold size bytes
// of data at DataSize usable bytes per cluster (spec.md scenario S4:
// 8192 bytes needs ⌈8192/4092⌉ = 3).
func sizeToClusters(size uint32) int {
	if size == 0 {
		return 0
	}
	n := int(size) / clustercache.DataSize
	if int(size)%clustercache.DataSize != 0 {
		n++
	}
	return n
}

// Open resolves path to a regular file and returns a handle for reading,
// writing, and truncating it. It fails ErrIsDir if path names a directory.
func (fs *Filesystem) Open(path string) (*FileHandle, errors.DriverError) {
	it, err := fs.lookup(path, false)
	if err != nil {
		return nil, err
	}
	e, err := it.entry()
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.ErrIsDir
	}

	return &FileHandle{fs: fs, it: it, path: path}, nil
}

// Release closes the handle. GhostFS keeps no open-file state beyond the
// handle itself, so Release is a no-op kept for symmetry with Open.
func (fh *FileHandle) Release() errors.DriverError {
	return nil
}

// Size returns the file's current size in bytes.
func (fh *FileHandle) Size() (uint32, errors.DriverError) {
	e, err := fh.it.entry()
	if err != nil {
		return 0, err
	}
	return e.ByteSize(), nil
}

// Read fills buf starting at offset off from the file's data, returning
// the number of bytes actually read. Reading at or past end-of-file
// returns 0 bytes and a nil error, matching ordinary POSIX read semantics.
func (fh *FileHandle) Read(buf []byte, off int64) (int, errors.DriverError) {
	if off < 0 {
		return 0, errors.ErrInval.WithMessage("negative offset")
	}

	e, err := fh.it.entry()
	if err != nil {
		return 0, err
	}

	size := int64(e.ByteSize())
	if off >= size || e.Cluster == 0 {
		return 0, nil
	}

	toRead := len(buf)
	if remaining := size - off; int64(toRead) > remaining {
		toRead = int(remaining)
	}

	read := 0
	for read < toRead {
		clusterPos := (off + int64(read)) / clustercache.DataSize
		clusterOff := (off + int64(read)) % clustercache.DataSize

		_, cluster, err := fh.fs.cache.At(e.Cluster, int(clusterPos))
		if err != nil {
			return read, err
		}

		n := copy(buf[read:toRead], clustercache.Data(cluster)[clusterOff:])
		read += n
	}

	return read, nil
}

// Write writes buf to the file starting at offset off, extending the
// file's cluster chain and stored size as needed, zero-filling any gap
// between the old end-of-file and off (spec.md §4.7, "extension zero-fill
// invariant"). It returns the number of bytes written.
func (fh *FileHandle) Write(buf []byte, off int64) (int, errors.DriverError) {
	if off < 0 {
		return 0, errors.ErrInval.WithMessage("negative offset")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if off > MaxFileSize {
		return 0, errors.ErrFileTooLarge
	}

	// off+len(buf) is computed in int64; spec.md's ErrOverflow is reachable
	// in principle (offset+size arithmetic overflow) but not in practice
	// here, since off is bounded by MaxFileSize and len(buf) by available
	// memory, well short of the int64 range.
	end := off + int64(len(buf))
	if end > MaxFileSize {
		return 0, errors.ErrFileTooLarge
	}

	e, err := fh.it.entry()
	if err != nil {
		return 0, err
	}

	oldSize := e.ByteSize()
	newSize := uint32(end)
	if newSize < oldSize {
		newSize = oldSize
	}

	oldClusters := sizeToClusters(oldSize)
	neededClusters := sizeToClusters(newSize)

	firstCluster := e.Cluster
	if neededClusters > oldClusters {
		if oldClusters == 0 {
			firstCluster, err = fh.fs.alloc.Alloc(neededClusters, true)
			if err != nil {
				return 0, err
			}
		} else {
			extra, err := fh.fs.alloc.Alloc(neededClusters-oldClusters, true)
			if err != nil {
				return 0, err
			}
			lastIdx, lastCluster, err := fh.fs.cache.At(firstCluster, oldClusters-1)
			if err != nil {
				return 0, err
			}
			clustercache.SetNextPointer(lastCluster, extra)
			fh.fs.cache.MarkDirty(lastIdx)
		}
	}

	if oldSize < uint32(off) {
		if err := fh.zeroFill(firstCluster, oldSize, uint32(off)); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(buf) {
		pos := off + int64(written)
		clusterPos := pos / clustercache.DataSize
		clusterOff := pos % clustercache.DataSize

		idx, cluster, err := fh.fs.cache.At(firstCluster, int(clusterPos))
		if err != nil {
			return written, err
		}

		n := copy(clustercache.Data(cluster)[clusterOff:], buf[written:])
		written += n
		fh.fs.cache.MarkDirty(idx)
	}

	newEntry := e
	newEntry.RawSize = newSize
	newEntry.Cluster = firstCluster
	if err := fh.it.setEntry(newEntry); err != nil {
		return written, err
	}

	return written, nil
}

// zeroFill clears the data bytes in [from, to) of the chain starting at
// start.
func (fh *FileHandle) zeroFill(start uint16, from, to uint32) errors.DriverError {
	for pos := from; pos < to; {
		clusterPos := pos / clustercache.DataSize
		clusterOff := pos % clustercache.DataSize

		idx, cluster, err := fh.fs.cache.At(start, int(clusterPos))
		if err != nil {
			return err
		}

		end := clustercache.DataSize
		if remaining := to - pos; uint32(end)-uint32(clusterOff) > remaining {
			end = int(clusterOff) + int(remaining)
		}

		data := clustercache.Data(cluster)
		for i := int(clusterOff); i < end; i++ {
			data[i] = 0
		}
		fh.fs.cache.MarkDirty(idx)

		pos += uint32(end) - clusterOff
	}
	return nil
}

// Truncate sets the file's size to newSize, freeing trailing clusters if
// it shrinks or zero-filling new ones if it grows.
func (fh *FileHandle) Truncate(newSize uint32) errors.DriverError {
	if newSize > MaxFileSize {
		return errors.ErrFileTooLarge
	}

	e, err := fh.it.entry()
	if err != nil {
		return err
	}

	oldSize := e.ByteSize()
	oldClusters := sizeToClusters(oldSize)
	neededClusters := sizeToClusters(newSize)

	firstCluster := e.Cluster

	switch {
	case neededClusters == oldClusters:
		// No chain to grow or shrink, but an extension that stays within
		// the already-allocated clusters still needs its tail zero-filled
		// below.
	case neededClusters == 0:
		if firstCluster != 0 {
			if err := fh.fs.alloc.FreeChain(firstCluster); err != nil {
				return err
			}
		}
		firstCluster = 0
	case neededClusters < oldClusters:
		lastKeptIdx, lastKept, err := fh.fs.cache.At(firstCluster, neededClusters-1)
		if err != nil {
			return err
		}
		cutAt := clustercache.NextPointer(lastKept)
		clustercache.SetNextPointer(lastKept, 0)
		fh.fs.cache.MarkDirty(lastKeptIdx)
		if cutAt != 0 {
			if err := fh.fs.alloc.FreeChain(cutAt); err != nil {
				return err
			}
		}
	default: // neededClusters > oldClusters
		if oldClusters == 0 {
			firstCluster, err = fh.fs.alloc.Alloc(neededClusters, true)
			if err != nil {
				return err
			}
		} else {
			extra, err := fh.fs.alloc.Alloc(neededClusters-oldClusters, true)
			if err != nil {
				return err
			}
			lastIdx, lastCluster, err := fh.fs.cache.At(firstCluster, oldClusters-1)
			if err != nil {
				return err
			}
			clustercache.SetNextPointer(lastCluster, extra)
			fh.fs.cache.MarkDirty(lastIdx)
		}
	}

	if newSize > oldSize && firstCluster != 0 {
		if err := fh.zeroFill(firstCluster, oldSize, newSize); err != nil {
			return err
		}
	}

	newEntry := e
	newEntry.RawSize = newSize
	newEntry.Cluster = firstCluster
	return fh.it.setEntry(newEntry)
}
