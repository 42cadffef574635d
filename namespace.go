package ghostfs

import (
	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/direntry"
)

// Create adds a new, empty regular file at path. The parent directory must
// already exist; path's leaf name must not.
func (fs *Filesystem) Create(path string) errors.DriverError {
	_, err := fs.createEntry(path, false)
	return err
}

// Mkdir adds a new, empty directory at path.
func (fs *Filesystem) Mkdir(path string) errors.DriverError {
	_, err := fs.createEntry(path, true)
	return err
}

// createEntry implements the shared bulk of Create and Mkdir (spec.md
// §4.6): resolve the parent, reject a clashing name, reserve one cluster
// for directories (files start with no clusters at all), write the new
// entry into the first free slot.
func (fs *Filesystem) createEntry(path string, isDir bool) (direntry.Entry, errors.DriverError) {
	name, parentIter, err := fs.resolveParentAndName(path)
	if err != nil {
		return direntry.Entry{}, err
	}

	parentCluster, err := fs.parentCluster(parentIter)
	if err != nil {
		return direntry.Entry{}, err
	}

	exists, err := fs.dirContains(parentCluster, name)
	if err != nil {
		return direntry.Entry{}, err
	}
	if exists {
		return direntry.Entry{}, errors.ErrExists
	}

	slot, ext, err := fs.findEmptySlot(parentCluster)
	if err != nil {
		return direntry.Entry{}, err
	}

	var entry direntry.Entry
	if isDir {
		clusterIdx, err := fs.alloc.Alloc(1, true)
		if err != nil {
			_ = fs.undoExtension(ext)
			return direntry.Entry{}, err
		}
		entry = direntry.NewDirEntry(name, clusterIdx)
	} else {
		entry = direntry.NewFileEntry(name, 0, 0)
	}

	if err := slot.setEntry(entry); err != nil {
		if isDir {
			_ = fs.alloc.FreeChain(entry.Cluster)
		}
		_ = fs.undoExtension(ext)
		return direntry.Entry{}, err
	}

	return entry, nil
}

// Unlink removes a regular file. It fails ErrIsDir if path names a
// directory; use Rmdir for those.
func (fs *Filesystem) Unlink(path string) errors.DriverError {
	it, err := fs.lookup(path, false)
	if err != nil {
		return err
	}
	if err := requireNotRoot(it); err != nil {
		return err
	}

	e, err := it.entry()
	if err != nil {
		return err
	}
	if e.IsDir() {
		return errors.ErrIsDir
	}

	if e.Cluster != 0 {
		if err := fs.alloc.FreeChain(e.Cluster); err != nil {
			return err
		}
	}

	return it.setEntry(direntry.Entry{})
}

// Rmdir removes an empty, non-root directory.
func (fs *Filesystem) Rmdir(path string) errors.DriverError {
	it, err := fs.lookup(path, false)
	if err != nil {
		return err
	}
	if err := requireNotRoot(it); err != nil {
		return err
	}

	e, err := it.entry()
	if err != nil {
		return err
	}
	if !e.IsDir() {
		return errors.ErrNotDir
	}

	empty, err := fs.dirIsEmpty(e.Cluster)
	if err != nil {
		return err
	}
	if !empty {
		return errors.ErrNotEmpty
	}

	if err := fs.alloc.FreeChain(e.Cluster); err != nil {
		return err
	}
	return it.setEntry(direntry.Entry{})
}

// dirIsEmpty reports whether every slot in the directory chain starting at
// clusterIdx is unused.
func (fs *Filesystem) dirIsEmpty(clusterIdx uint16) (bool, errors.DriverError) {
	it := fs.initDir(clusterIdx)
	for {
		e, err := it.entry()
		if err != nil {
			return false, err
		}
		if e.Used() {
			return false, nil
		}
		if err := it.next(); err != nil {
			if err.Kind() == errors.ErrNotFound {
				return true, nil
			}
			return false, err
		}
	}
}

// Rename moves the entry at oldPath to newPath, replacing newPath if it
// already exists. Per the design decision recorded for spec.md's open
// question on this operation, a rename is refused with ErrIsDir if it
// would clobber an existing directory with a non-directory, and with
// ErrNotDir if it would clobber an existing non-directory with a
// directory — rather than silently orphaning the destination's cluster
// chain.
func (fs *Filesystem) Rename(oldPath, newPath string) errors.DriverError {
	srcIt, err := fs.lookup(oldPath, false)
	if err != nil {
		return err
	}
	if err := requireNotRoot(srcIt); err != nil {
		return err
	}
	srcEntry, err := srcIt.entry()
	if err != nil {
		return err
	}

	newName, destParentIter, err := fs.resolveParentAndName(newPath)
	if err != nil {
		return err
	}
	destParentCluster, err := fs.parentCluster(destParentIter)
	if err != nil {
		return err
	}

	destIt, found, err := fs.findInDir(fs.initDir(destParentCluster), newName)
	if err != nil {
		return err
	}

	if found {
		destEntry, err := destIt.entry()
		if err != nil {
			return err
		}
		if destEntry.IsDir() != srcEntry.IsDir() {
			if destEntry.IsDir() {
				return errors.ErrIsDir
			}
			return errors.ErrNotDir
		}
		if destEntry.IsDir() {
			empty, err := fs.dirIsEmpty(destEntry.Cluster)
			if err != nil {
				return err
			}
			if !empty {
				return errors.ErrNotEmpty
			}
		}
		if destEntry.Cluster != 0 {
			if err := fs.alloc.FreeChain(destEntry.Cluster); err != nil {
				return err
			}
		}

		renamed := srcEntry
		renamed.Filename = newName
		if err := destIt.setEntry(renamed); err != nil {
			return err
		}
		return srcIt.setEntry(direntry.Entry{})
	}

	slot, _, err := fs.findEmptySlot(destParentCluster)
	if err != nil {
		return err
	}
	renamed := srcEntry
	renamed.Filename = newName
	if err := slot.setEntry(renamed); err != nil {
		return err
	}
	return srcIt.setEntry(direntry.Entry{})
}

// resolveParentAndName resolves path's parent directory via lookup's
// skip_last mode (spec.md §4.5/§4.6 step 1-2) and validates the leaf
// name isn't empty or too long.
func (fs *Filesystem) resolveParentAndName(path string) (string, *dirIter, errors.DriverError) {
	components, err := splitPath(path)
	if err != nil {
		return "", nil, err
	}
	if len(components) == 0 {
		return "", nil, errors.ErrInval.WithMessage("empty file name")
	}

	name := components[len(components)-1]
	if direntry.TooLong(name) {
		return "", nil, errors.ErrNameTooLong.WithMessage(name)
	}

	parentIter, err := fs.lookup(path, true)
	if err != nil {
		return "", nil, err
	}
	return name, parentIter, nil
}

// parentCluster returns the first cluster of the directory an iterator
// points to, resolving the synthetic root to cluster 0.
func (fs *Filesystem) parentCluster(it *dirIter) (uint16, errors.DriverError) {
	e, err := it.entry()
	if err != nil {
		return 0, err
	}
	if !e.IsDir() {
		return 0, errors.ErrNotDir
	}
	return e.Cluster, nil
}
