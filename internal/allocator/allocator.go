// Package allocator implements the cluster allocator described in
// spec.md §4.3: first-fit scanning from cluster 1, all-or-nothing
// rollback on exhaustion, and best-effort chain freeing. The rollback
// technique — re-walk the chain via the next pointers that were already
// written before the failure was detected — is carried over verbatim
// from the original ghostfs C implementation's alloc_clusters/undo path,
// per spec.md §9's guidance to keep it.
package allocator

import (
	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/clustercache"
)

// Allocator tracks free-cluster bookkeeping on top of a Cache.
type Allocator struct {
	cache *clustercache.Cache
	count uint16
	free  uint16
}

// New creates an Allocator over cache, which must address exactly count
// clusters, with free already-free clusters (as determined by a mount-time
// scan).
func New(cache *clustercache.Cache, count uint16, free uint16) *Allocator {
	return &Allocator{cache: cache, count: count, free: free}
}

// FreeClusters returns the number of clusters currently unallocated.
// Invariant 3 (spec.md §3) requires this always equal the number of
// clusters with used==0 in [1, count).
func (a *Allocator) FreeClusters() uint16 {
	return a.free
}

// Alloc reserves count previously-free clusters, links them in order,
// terminates the chain with next=0, and returns the index of the first
// cluster. When zero is true the data region of each cluster is zeroed.
//
// If fewer than count free clusters are available, every cluster
// allocated so far is rolled back (used cleared, marked dirty,
// free-count restored) before ErrNoSpace is returned.
func (a *Allocator) Alloc(count int, zero bool) (uint16, errors.DriverError) {
	if count <= 0 {
		return 0, nil
	}

	var first uint16
	var prevIdx uint16
	havePrev := false
	allocated := 0

	pos := uint16(1)
	for allocated < count {
		found := false
		for pos < a.count {
			cluster, err := a.cache.Get(pos)
			if err != nil {
				a.rollback(first, allocated)
				return 0, err
			}

			if !clustercache.IsUsed(cluster) {
				if zero {
					data := clustercache.Data(cluster)
					for i := range data {
						data[i] = 0
					}
				}
				clustercache.SetUsed(cluster, true)
				a.cache.MarkDirty(pos)
				a.free--

				if !havePrev {
					first = pos
					havePrev = true
				} else {
					prevCluster, err := a.cache.Get(prevIdx)
					if err != nil {
						a.rollback(first, allocated+1)
						return 0, err
					}
					clustercache.SetNextPointer(prevCluster, pos)
					a.cache.MarkDirty(prevIdx)
				}
				prevIdx = pos
				pos++
				found = true
				break
			}
			pos++
		}

		if !found {
			a.rollback(first, allocated)
			return 0, errors.ErrNoSpace
		}
		allocated++
	}

	lastCluster, err := a.cache.Get(prevIdx)
	if err != nil {
		a.rollback(first, allocated)
		return 0, err
	}
	clustercache.SetNextPointer(lastCluster, 0)
	a.cache.MarkDirty(prevIdx)

	return first, nil
}

// rollback frees the up-to-allocated clusters starting at first, walking
// the next pointers written so far. The walk stops at the first cluster
// that cannot be read, since its next pointer is then unknown; clusters
// after it in the prefix stay marked used, and the read error is returned
// wrapped as ErrIO.
func (a *Allocator) rollback(first uint16, allocated int) errors.DriverError {
	if allocated == 0 {
		return nil
	}

	var result error
	pos := first
	for i := 0; i < allocated && pos != 0; i++ {
		cluster, err := a.cache.Get(pos)
		if err != nil {
			result = multierror.Append(result, err)
			break
		}

		next := clustercache.NextPointer(cluster)
		clustercache.SetUsed(cluster, false)
		a.cache.MarkDirty(pos)
		a.free++
		pos = next
	}

	if result == nil {
		return nil
	}
	return errors.ErrIO.WrapError(result)
}

// FreeChain walks the chain starting at start, clearing each cluster's
// used bit, marking it dirty, and incrementing the free count, stopping
// at next==0. If a transport read fails mid-walk, the clusters freed so
// far stay freed (spec.md §4.3: best-effort, the free-set is the source
// of truth at next mount) and the error is returned to the caller instead
// of being silently swallowed.
func (a *Allocator) FreeChain(start uint16) errors.DriverError {
	current := start
	for current != 0 {
		cluster, err := a.cache.Get(current)
		if err != nil {
			return err
		}

		next := clustercache.NextPointer(cluster)
		clustercache.SetUsed(cluster, false)
		a.cache.MarkDirty(current)
		a.free++
		current = next
	}
	return nil
}
