// Package clustercache provides lazy, write-back caching of 4096-byte
// clusters loaded on demand from a transport.Transport. It is a direct
// adaptation of dargueta-disko's drivers/common/blockcache.BlockCache:
// the same "loaded" / "dirty" bitmap pair, the same fetch/flush callback
// shape, generalized from arbitrary logical blocks to GhostFS's
// fixed-size, fixed-count clusters.
package clustercache

import (
	"github.com/boljen/go-bitmap"

	"github.com/dargueta/ghostfs/errors"
)

const (
	// Size is the total size of one cluster, in bytes.
	Size = 4096
	// DataSize is the usable data area of one cluster, in bytes; the
	// remaining 4 bytes hold the next-pointer and the used flag.
	DataSize = 4092

	nextOffset = DataSize
	usedOffset = DataSize + 2
)

// FetchFunc loads the contents of cluster idx from the transport into buf,
// which is guaranteed to be exactly Size bytes.
type FetchFunc func(idx uint16, buf []byte) errors.DriverError

// FlushFunc writes buf, exactly Size bytes, back to cluster idx on the
// transport.
type FlushFunc func(idx uint16, buf []byte) errors.DriverError

// Cache is a lazily-populated, write-back cache of every cluster on a
// mounted image. It never evicts: per spec.md §4.2, it grows to at most
// cluster_count resident clusters for the life of the mount.
type Cache struct {
	loaded bitmap.Bitmap
	dirty  bitmap.Bitmap
	data   []byte
	count  uint16
	fetch  FetchFunc
	flush  FlushFunc
}

// New creates a Cache able to hold count clusters, fetching and flushing
// through the given callbacks.
func New(count uint16, fetch FetchFunc, flush FlushFunc) *Cache {
	return &Cache{
		loaded: bitmap.NewSlice(int(count)),
		dirty:  bitmap.NewSlice(int(count)),
		data:   make([]byte, int(count)*Size),
		count:  count,
		fetch:  fetch,
		flush:  flush,
	}
}

// Count returns the number of clusters this cache can hold.
func (c *Cache) Count() uint16 {
	return c.count
}

func (c *Cache) checkRange(idx uint16) errors.DriverError {
	if idx >= c.count {
		return errors.ErrOutOfRange.WithMessage("cluster index out of range")
	}
	return nil
}

func (c *Cache) slice(idx uint16) []byte {
	start := int(idx) * Size
	return c.data[start : start+Size]
}

// Get returns the resident byte slice for cluster idx, fetching it from
// the transport first if it isn't already loaded. The returned slice
// aliases the cache's storage: mutate it in place, then call MarkDirty.
func (c *Cache) Get(idx uint16) ([]byte, errors.DriverError) {
	if err := c.checkRange(idx); err != nil {
		return nil, err
	}

	if !c.loaded.Get(int(idx)) {
		buf := c.slice(idx)
		if err := c.fetch(idx, buf); err != nil {
			return nil, errors.ErrIO.WrapError(err)
		}
		c.loaded.Set(int(idx), true)
		c.dirty.Set(int(idx), false)
	}

	return c.slice(idx), nil
}

// MarkDirty flags cluster idx as modified so Flush/FlushAll will write it
// back.
func (c *Cache) MarkDirty(idx uint16) {
	c.dirty.Set(int(idx), true)
}

// IsDirty reports whether cluster idx has unflushed modifications.
func (c *Cache) IsDirty(idx uint16) bool {
	return c.dirty.Get(int(idx))
}

// ClearDirty marks cluster idx clean without flushing it, for callers
// that have already written it back through some other path (GhostFS
// uses this for cluster 0, which Sync writes directly alongside the
// header and digest).
func (c *Cache) ClearDirty(idx uint16) {
	c.dirty.Set(int(idx), false)
}

// Flush writes cluster idx back to the transport if it is dirty, and
// clears its dirty flag.
func (c *Cache) Flush(idx uint16) errors.DriverError {
	if err := c.checkRange(idx); err != nil {
		return err
	}
	if !c.dirty.Get(int(idx)) {
		return nil
	}
	if err := c.flush(idx, c.slice(idx)); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	c.dirty.Set(int(idx), false)
	return nil
}

// Next returns the index and resident slice of the cluster following idx
// in its chain. It fails with ErrIO if idx's next pointer is 0, matching
// spec.md §4.2's get_next: callers only follow Next when they expect the
// chain to continue.
func (c *Cache) Next(idx uint16) (uint16, []byte, errors.DriverError) {
	cluster, err := c.Get(idx)
	if err != nil {
		return 0, nil, err
	}

	next := NextPointer(cluster)
	if next == 0 {
		return 0, nil, errors.ErrIO.WithMessage("cluster missing, bad filesystem")
	}

	nextCluster, err := c.Get(next)
	if err != nil {
		return 0, nil, err
	}
	return next, nextCluster, nil
}

// At returns the index and resident slice of the (index+1)-th cluster in
// the chain starting at start. index 0 returns start itself.
func (c *Cache) At(start uint16, index int) (uint16, []byte, errors.DriverError) {
	current := start
	cluster, err := c.Get(current)
	if err != nil {
		return 0, nil, err
	}

	for i := 0; i < index; i++ {
		next := NextPointer(cluster)
		if next == 0 {
			return 0, nil, errors.ErrIO.WithMessage("cluster chain ended prematurely")
		}
		current = next
		cluster, err = c.Get(current)
		if err != nil {
			return 0, nil, err
		}
	}

	return current, cluster, nil
}

// NextPointer reads the next-cluster field out of a resident cluster
// slice.
func NextPointer(cluster []byte) uint16 {
	return uint16(cluster[nextOffset]) | uint16(cluster[nextOffset+1])<<8
}

// SetNextPointer writes the next-cluster field of a resident cluster
// slice.
func SetNextPointer(cluster []byte, next uint16) {
	cluster[nextOffset] = byte(next)
	cluster[nextOffset+1] = byte(next >> 8)
}

// IsUsed reports whether a resident cluster slice is marked allocated.
func IsUsed(cluster []byte) bool {
	return cluster[usedOffset] != 0
}

// SetUsed sets or clears the allocated flag of a resident cluster slice.
func SetUsed(cluster []byte, used bool) {
	if used {
		cluster[usedOffset] = 1
	} else {
		cluster[usedOffset] = 0
	}
}

// Data returns the 4092-byte data region of a resident cluster slice.
func Data(cluster []byte) []byte {
	return cluster[:DataSize]
}
