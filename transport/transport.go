// Package transport presents the steganographic carrier as a flat,
// fixed-capacity, positioned-I/O byte store. Everything above this layer
// — cluster cache, allocator, directory layer — only ever talks to a
// Transport, never to the carrier directly. This mirrors the way the
// disko drivers never touch an os.File; they go through an
// io.ReaderAt/io.WriterAt-shaped seam so the backing store is swappable
// in tests.
package transport

import (
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/ghostfs/errors"
)

// Transport is the contract GhostFS requires from its backing carrier: a
// fixed capacity and positioned read/write of arbitrary byte ranges.
// Partial I/O must be completed or reported, matching spec.md §6.
type Transport interface {
	// Capacity returns the total number of addressable bytes.
	Capacity() uint64

	// ReadAt fills p entirely from the carrier starting at off, or
	// returns a DriverError.
	ReadAt(p []byte, off int64) errors.DriverError

	// WriteAt writes all of p to the carrier starting at off, or returns
	// a DriverError.
	WriteAt(p []byte, off int64) errors.DriverError
}

// seekerTransport adapts any io.ReadWriteSeeker (the shape the steganographic
// transport is expected to present) into a Transport.
type seekerTransport struct {
	rw       io.ReadWriteSeeker
	capacity uint64
}

// New wraps rw, a positioned-I/O stream over exactly capacity bytes, as a
// Transport. rw is typically backed by the external steganographic
// carrier; in tests it is usually an in-memory buffer from
// bytesextra.NewReadWriteSeeker.
func New(rw io.ReadWriteSeeker, capacity uint64) Transport {
	return &seekerTransport{rw: rw, capacity: capacity}
}

// InMemory returns a Transport backed by a zeroed in-memory buffer of
// exactly capacity bytes. Useful for tests and for exercising the format
// path without a real steganographic carrier.
func InMemory(capacity uint64) Transport {
	return New(bytesextra.NewReadWriteSeeker(make([]byte, capacity)), capacity)
}

func (t *seekerTransport) Capacity() uint64 {
	return t.capacity
}

func (t *seekerTransport) checkBounds(length int, off int64) errors.DriverError {
	if off < 0 || length < 0 {
		return errors.ErrInval.WithMessage("negative offset or length")
	}
	if uint64(off)+uint64(length) > t.capacity {
		return errors.ErrIO.WithMessage("access beyond carrier capacity")
	}
	return nil
}

func (t *seekerTransport) ReadAt(p []byte, off int64) errors.DriverError {
	if err := t.checkBounds(len(p), off); err != nil {
		return err
	}
	if _, err := t.rw.Seek(off, io.SeekStart); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	if _, err := io.ReadFull(t.rw, p); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	return nil
}

func (t *seekerTransport) WriteAt(p []byte, off int64) errors.DriverError {
	if err := t.checkBounds(len(p), off); err != nil {
		return err
	}
	if _, err := t.rw.Seek(off, io.SeekStart); err != nil {
		return errors.ErrIO.WrapError(err)
	}
	written := 0
	for written < len(p) {
		n, err := t.rw.Write(p[written:])
		if err != nil {
			return errors.ErrIO.WrapError(err)
		}
		written += n
	}
	return nil
}
