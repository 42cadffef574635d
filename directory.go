package ghostfs

import (
	"strings"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/clustercache"
	"github.com/dargueta/ghostfs/internal/direntry"
)

// dirIter locates one directory entry: either the synthetic root, or a
// specific (cluster, slot) inside a cluster chain. This is the Go
// counterpart of the original implementation's dir_iter / the design
// note's suggestion to model the iterator as carrying "either an
// in-cluster entry or the synthetic root" (spec.md §9).
type dirIter struct {
	fs        *Filesystem
	isRoot    bool
	cluster   uint16
	slotIndex int
}

func (fs *Filesystem) rootIter() *dirIter {
	return &dirIter{fs: fs, isRoot: true}
}

// initDir points it at the first slot of the directory cluster chain
// starting at clusterIdx.
func (fs *Filesystem) initDir(clusterIdx uint16) *dirIter {
	return &dirIter{fs: fs, isRoot: false, cluster: clusterIdx, slotIndex: 0}
}

// entry decodes the directory entry it currently points to.
func (it *dirIter) entry() (direntry.Entry, errors.DriverError) {
	if it.isRoot {
		return it.fs.rootEntry, nil
	}

	cluster, err := it.fs.cache.Get(it.cluster)
	if err != nil {
		return direntry.Entry{}, err
	}
	off := direntry.EntryOffset(it.slotIndex)
	return direntry.Decode(clustercache.Data(cluster)[off : off+direntry.Size])
}

// setEntry overwrites the slot it points to and marks its cluster dirty.
// It is an error to call this on the root iterator.
func (it *dirIter) setEntry(e direntry.Entry) errors.DriverError {
	if it.isRoot {
		return errors.ErrInval.WithMessage("cannot rewrite the synthetic root entry")
	}

	cluster, err := it.fs.cache.Get(it.cluster)
	if err != nil {
		return err
	}
	off := direntry.EntryOffset(it.slotIndex)
	if err := direntry.Encode(e, clustercache.Data(cluster)[off:off+direntry.Size]); err != nil {
		return err
	}
	it.fs.cache.MarkDirty(it.cluster)
	return nil
}

// next advances one slot, crossing into the next cluster of the chain
// when the current cluster is exhausted. It fails ErrNotFound once the
// chain itself ends.
func (it *dirIter) next() errors.DriverError {
	if it.isRoot {
		return errors.ErrNotFound
	}

	if it.slotIndex < direntry.EntriesPerCluster-1 {
		it.slotIndex++
		return nil
	}

	cluster, err := it.fs.cache.Get(it.cluster)
	if err != nil {
		return err
	}
	next := clustercache.NextPointer(cluster)
	if next == 0 {
		return errors.ErrNotFound
	}

	it.cluster = next
	it.slotIndex = 0
	return nil
}

// nextUsed advances until it lands on a used entry, or returns
// ErrNotFound once the chain is exhausted.
func (it *dirIter) nextUsed() errors.DriverError {
	for {
		if err := it.next(); err != nil {
			return err
		}
		e, err := it.entry()
		if err != nil {
			return err
		}
		if e.Used() {
			return nil
		}
	}
}

// extension records a directory cluster chain extension performed by
// findEmptySlot, so a caller that goes on to fail for some other reason
// (e.g. the new directory's own cluster allocation) can undo it.
type extension struct {
	linkedFrom uint16 // cluster whose next pointer was rewritten, 0 if none
	added      uint16 // the newly allocated cluster, 0 if none
}

// undoExtension reverses an extension: clears the link and frees the
// cluster that was added, if any.
func (fs *Filesystem) undoExtension(ext extension) errors.DriverError {
	if ext.added == 0 {
		return nil
	}
	cluster, err := fs.cache.Get(ext.linkedFrom)
	if err != nil {
		return err
	}
	clustercache.SetNextPointer(cluster, 0)
	fs.cache.MarkDirty(ext.linkedFrom)
	return fs.alloc.FreeChain(ext.added)
}

// findEmptySlot scans the directory chain starting at clusterIdx for the
// first unused slot, returning an iterator pointing at it. Per spec.md
// §4.6 step 3, if every cluster in the chain is full it allocates one new
// zero-filled directory cluster and links it as the chain's last next
// pointer, then uses that cluster's first slot (spec.md scenario S3: the
// 67th file in a directory forces this).
func (fs *Filesystem) findEmptySlot(clusterIdx uint16) (*dirIter, extension, errors.DriverError) {
	it := fs.initDir(clusterIdx)
	for {
		e, err := it.entry()
		if err != nil {
			return nil, extension{}, err
		}
		if !e.Used() {
			return it, extension{}, nil
		}

		if err := it.next(); err != nil {
			if err.Kind() != errors.ErrNotFound {
				return nil, extension{}, err
			}

			lastCluster := it.cluster
			newCluster, allocErr := fs.alloc.Alloc(1, true)
			if allocErr != nil {
				return nil, extension{}, allocErr
			}

			residentLast, getErr := fs.cache.Get(lastCluster)
			if getErr != nil {
				_ = fs.alloc.FreeChain(newCluster)
				return nil, extension{}, getErr
			}
			clustercache.SetNextPointer(residentLast, newCluster)
			fs.cache.MarkDirty(lastCluster)

			return fs.initDir(newCluster), extension{linkedFrom: lastCluster, added: newCluster}, nil
		}
	}
}

// dirContains reports whether name already exists among the used entries
// of the directory chain starting at clusterIdx.
func (fs *Filesystem) dirContains(clusterIdx uint16, name string) (bool, errors.DriverError) {
	it := fs.initDir(clusterIdx)
	for {
		e, err := it.entry()
		if err != nil {
			return false, err
		}
		if e.Used() && e.Filename == name {
			return true, nil
		}
		if err := it.nextUsed(); err != nil {
			if err.Kind() == errors.ErrNotFound {
				return false, nil
			}
			return false, err
		}
	}
}

// splitPath breaks an absolute path into its components. path must start
// with "/". An empty or root-only path yields zero components.
func splitPath(path string) ([]string, errors.DriverError) {
	if !strings.HasPrefix(path, "/") {
		return nil, errors.ErrInval.WithMessage("path must be absolute")
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "/"), nil
}

// lookup resolves path to a directory entry iterator, following
// spec.md §4.5:
//
//   - The root path resolves to the synthetic root entry.
//   - With skipLast, the final component is left unresolved and the
//     iterator returned points at the parent's own entry instead (the
//     root entry if path has exactly one component).
//   - Descending into a non-directory yields ErrNotDir; exhausting a
//     directory without a match yields ErrNotFound.
//
// Both modes reduce to the same walk: resolve every component up to but
// not including a target index, requiring each to be a directory, then
// locate the target component's own entry (without requiring it to be a
// directory itself — the caller decides what to do with a file there).
// skipLast simply moves the target index one component earlier.
func (fs *Filesystem) lookup(path string, skipLast bool) (*dirIter, errors.DriverError) {
	components, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	if len(components) == 0 {
		return fs.rootIter(), nil
	}

	targetIndex := len(components) - 1
	if skipLast {
		targetIndex--
	}
	if targetIndex < 0 {
		return fs.rootIter(), nil
	}

	current := fs.rootIter()
	for _, name := range components[:targetIndex] {
		it, found, err := fs.findInDir(current, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.ErrNotFound
		}

		e, err := it.entry()
		if err != nil {
			return nil, err
		}
		if !e.IsDir() {
			return nil, errors.ErrNotDir
		}

		current = fs.initDir(e.Cluster)
	}

	it, found, err := fs.findInDir(current, components[targetIndex])
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.ErrNotFound
	}
	return it, nil
}

// findInDir scans the directory dir (an iterator pointing at a slot of
// the first cluster of the target directory's chain, or the root
// iterator) for name, returning an iterator positioned at the match. The
// scan starts at dir's cluster, so clusters before it are not searched.
func (fs *Filesystem) findInDir(dir *dirIter, name string) (*dirIter, bool, errors.DriverError) {
	var startCluster uint16
	if !dir.isRoot {
		startCluster = dir.cluster
	}

	it := fs.initDir(startCluster)
	for {
		e, err := it.entry()
		if err != nil {
			return nil, false, err
		}
		if e.Used() && e.Filename == name {
			return it, true, nil
		}
		if err := it.next(); err != nil {
			if err.Kind() == errors.ErrNotFound {
				return nil, false, nil
			}
			return nil, false, err
		}
	}
}
