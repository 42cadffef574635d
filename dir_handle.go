package ghostfs

import (
	"github.com/dargueta/ghostfs/errors"
)

// DirHandle iterates the used entries of a directory opened with Opendir,
// per spec.md §6.
type DirHandle struct {
	fs        *Filesystem
	it        *dirIter
	started   bool
	exhausted bool
}

// Opendir resolves path to a directory and returns a handle positioned
// before its first entry.
func (fs *Filesystem) Opendir(path string) (*DirHandle, errors.DriverError) {
	it, err := fs.lookup(path, false)
	if err != nil {
		return nil, err
	}
	e, err := it.entry()
	if err != nil {
		return nil, err
	}
	if !e.IsDir() {
		return nil, errors.ErrNotDir
	}

	return &DirHandle{fs: fs, it: fs.initDir(e.Cluster)}, nil
}

// NextEntry advances to and returns the name of the next used entry, or
// ("", nil) once the directory is exhausted.
func (dh *DirHandle) NextEntry() (string, errors.DriverError) {
	if dh.exhausted {
		return "", nil
	}

	if !dh.started {
		dh.started = true
		e, err := dh.it.entry()
		if err != nil {
			return "", err
		}
		if e.Used() {
			return e.Filename, nil
		}
	}

	if err := dh.it.nextUsed(); err != nil {
		if err.Kind() == errors.ErrNotFound {
			dh.exhausted = true
			return "", nil
		}
		return "", err
	}

	e, err := dh.it.entry()
	if err != nil {
		return "", err
	}
	return e.Filename, nil
}

// Closedir releases the handle. GhostFS keeps no transport-level state
// tied to an open directory, so this is a no-op kept for API symmetry.
func (dh *DirHandle) Closedir() errors.DriverError {
	return nil
}
