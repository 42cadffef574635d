// Package ghostfs implements a small POSIX-style filesystem whose entire
// backing store is a byte-addressable carrier of fixed capacity, exposed
// through the transport.Transport contract. See spec.md for the full
// on-disk format and semantics; this file holds the Filesystem type and
// the constants shared by every other file in the package.
package ghostfs

import (
	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/allocator"
	"github.com/dargueta/ghostfs/internal/clustercache"
	"github.com/dargueta/ghostfs/internal/direntry"
	"github.com/dargueta/ghostfs/transport"
)

const (
	// digestOffset is where the 16-byte integrity digest lives.
	digestOffset = 0
	// headerOffset is where the 2-byte cluster_count header lives.
	headerOffset = 16
	// headerSize is the size of the on-disk header.
	headerSize = 2
	// clusterAreaOffset is where cluster 0 begins.
	clusterAreaOffset = headerOffset + headerSize

	// maxClusterCount is the largest cluster_count the 16-bit field can
	// hold.
	maxClusterCount = 65535

	// MaxFileSize is the largest size, in bytes, truncate/write will
	// accept (2 GiB - 1, spec.md's Non-goals).
	MaxFileSize = 0x7FFFFFFF
)

// Filesystem is a mounted GhostFS image. All operations are synchronous
// and unsynchronized: spec.md §5 requires the caller to serialize every
// call against a given mount.
type Filesystem struct {
	transport    transport.Transport
	clusterCount uint16
	cache        *clustercache.Cache
	alloc        *allocator.Allocator
	rootEntry    direntry.Entry
	opts         MountOptions
}

// ClusterCount returns the number of clusters on the mounted image,
// including cluster 0.
func (fs *Filesystem) ClusterCount() uint16 {
	return fs.clusterCount
}

func clusterOffset(idx uint16) int64 {
	return int64(clusterAreaOffset) + int64(idx)*clustercache.Size
}

// requireNotRoot rejects operations spec.md disallows on the synthetic
// root entry (e.g. rmdir("/"), rename("/", ...)).
func requireNotRoot(it *dirIter) errors.DriverError {
	if it.isRoot {
		return errors.ErrInval.WithMessage("operation not permitted on root")
	}
	return nil
}
