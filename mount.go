package ghostfs

import (
	"encoding/binary"

	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/allocator"
	"github.com/dargueta/ghostfs/internal/clustercache"
	"github.com/dargueta/ghostfs/internal/digest"
	"github.com/dargueta/ghostfs/internal/direntry"
	"github.com/dargueta/ghostfs/transport"
)

// Mount verifies the integrity digest, reads the header, and brings up
// the cluster cache and allocator over tp. It fails with ErrIO if the
// digest doesn't match (spec.md scenario S6: a single flipped byte in
// cluster 0 must fail mount).
func Mount(tp transport.Transport, opts MountOptions) (*Filesystem, errors.DriverError) {
	storedDigest := make([]byte, digest.Size)
	if err := tp.ReadAt(storedDigest, digestOffset); err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	if err := tp.ReadAt(header, headerOffset); err != nil {
		return nil, err
	}

	cluster0 := make([]byte, clustercache.Size)
	if err := tp.ReadAt(cluster0, clusterAreaOffset); err != nil {
		return nil, err
	}

	computed := digest.Compute(header, cluster0)
	if !digestsEqual(computed, storedDigest) {
		return nil, errors.ErrIO.WithMessage("digest mismatch, corrupt filesystem")
	}

	clusterCount := binary.LittleEndian.Uint16(header)

	fs := &Filesystem{
		transport:    tp,
		clusterCount: clusterCount,
		rootEntry:    direntry.RootEntry(),
		opts:         opts,
	}

	fs.cache = clustercache.New(clusterCount, fs.fetchCluster, fs.flushCluster)

	var freeCount uint16
	for i := uint16(1); i < clusterCount; i++ {
		cluster, err := fs.cache.Get(i)
		if err != nil {
			return nil, err
		}
		if !clustercache.IsUsed(cluster) {
			freeCount++
		}
	}

	fs.alloc = allocator.New(fs.cache, clusterCount, freeCount)

	return fs, nil
}

func digestsEqual(computed [digest.Size]byte, stored []byte) bool {
	if len(stored) != digest.Size {
		return false
	}
	for i := range computed {
		if computed[i] != stored[i] {
			return false
		}
	}
	return true
}

func (fs *Filesystem) fetchCluster(idx uint16, buf []byte) errors.DriverError {
	return fs.transport.ReadAt(buf, clusterOffset(idx))
}

func (fs *Filesystem) flushCluster(idx uint16, buf []byte) errors.DriverError {
	return fs.transport.WriteAt(buf, clusterOffset(idx))
}

// Sync rewrites cluster 0 and the header/digest unconditionally (spec.md
// §5: this is cheap insurance that invariant 8 always holds after a
// sync), then flushes every other resident dirty cluster. Flushing
// continues even if one cluster fails, and every failure is aggregated
// into the returned error, so a single bad cluster doesn't stop the rest
// of the image from being written back.
func (fs *Filesystem) Sync() errors.DriverError {
	cluster0, err := fs.cache.Get(0)
	if err != nil {
		return err
	}

	header := make([]byte, headerSize)
	binary.Write(bytewriter.New(header), binary.LittleEndian, fs.clusterCount)

	if err := writeHeaderAndCluster0(fs.transport, header, cluster0); err != nil {
		return err
	}
	fs.cache.ClearDirty(0)

	var result error
	for i := uint16(1); i < fs.clusterCount; i++ {
		if !fs.cache.IsDirty(i) {
			continue
		}
		if err := fs.cache.Flush(i); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result == nil {
		return nil
	}
	return errors.ErrIO.WrapError(result)
}

// Umount syncs then releases all in-memory state, returning the sync
// error if any.
func (fs *Filesystem) Umount() errors.DriverError {
	err := fs.Sync()
	fs.cache = nil
	fs.alloc = nil
	return err
}
