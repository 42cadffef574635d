// Package direntry defines the on-disk directory entry layout and its
// marshaling to and from the 62-byte packed record described in spec.md
// §3. It mirrors the way the fat driver's RawDirent/Dirent split works in
// dargueta-disko (file_systems/fat/dirent.go): a raw byte-for-byte layout
// on one side, a friendlier in-memory form on the other, joined by
// Decode/Encode.
package direntry

import (
	"encoding/binary"

	"github.com/dargueta/ghostfs/errors"
)

const (
	// FilenameSize is the width of the filename field, including its NUL
	// terminator.
	FilenameSize = 56
	// MaxNameLength is the longest filename GhostFS accepts, in bytes,
	// leaving room for the terminator.
	MaxNameLength = FilenameSize - 1
	// Size is the encoded length of one directory entry.
	Size = FilenameSize + 4 + 2
	// EntriesPerCluster is how many directory entries fit in the data
	// region of one cluster (4092 / 62 = 66).
	EntriesPerCluster = 66

	// dirBit is the high bit of the size field marking an entry as a
	// directory.
	dirBit = uint32(1) << 31
)

// Entry is the decoded form of a directory entry.
type Entry struct {
	// Filename is empty for an unused slot. It is never NUL-terminated
	// and never longer than MaxNameLength.
	Filename string
	// RawSize is the 32-bit on-disk size field, low 31 bits holding the
	// byte length for files (0 for directories) and the high bit marking
	// a directory.
	RawSize uint32
	// Cluster is the first cluster of the entry's chain, 0 if empty.
	Cluster uint16
}

// IsDir reports whether the entry's directory bit is set.
func (e Entry) IsDir() bool {
	return e.RawSize&dirBit != 0
}

// ByteSize returns the file size in bytes. It is always 0 for directories.
func (e Entry) ByteSize() uint32 {
	return e.RawSize &^ dirBit
}

// Used reports whether this slot holds a live entry. Per spec.md invariant
// 5, an empty slot's other fields carry no meaning.
func (e Entry) Used() bool {
	return e.Filename != ""
}

// NewFileEntry builds an Entry for a regular file of the given size.
func NewFileEntry(name string, size uint32, cluster uint16) Entry {
	return Entry{Filename: name, RawSize: size &^ dirBit, Cluster: cluster}
}

// NewDirEntry builds an Entry for a directory.
func NewDirEntry(name string, cluster uint16) Entry {
	return Entry{Filename: name, RawSize: dirBit, Cluster: cluster}
}

// RootEntry is the synthetic entry describing "/". It is never persisted;
// spec.md §3 calls it out explicitly as backed by cluster 0 without ever
// appearing in a cluster's data region.
func RootEntry() Entry {
	return Entry{Filename: "", RawSize: dirBit, Cluster: 0}
}

// TooLong reports whether name is too long to store (spec.md: filenames
// longer than 55 bytes are rejected with NAME_TOO_LONG).
func TooLong(name string) bool {
	return len(name) > MaxNameLength
}

// Decode reads one packed directory entry out of b, which must be exactly
// Size bytes (typically a EntriesPerCluster-wide slice sliced down to one
// entry).
func Decode(b []byte) (Entry, errors.DriverError) {
	if len(b) != Size {
		return Entry{}, errors.ErrIO.WithMessage("short directory entry read")
	}

	nameEnd := 0
	for nameEnd < FilenameSize && b[nameEnd] != 0 {
		nameEnd++
	}

	return Entry{
		Filename: string(b[:nameEnd]),
		RawSize:  binary.LittleEndian.Uint32(b[FilenameSize : FilenameSize+4]),
		Cluster:  binary.LittleEndian.Uint16(b[FilenameSize+4 : FilenameSize+6]),
	}, nil
}

// Encode packs e into b, which must be exactly Size bytes. An empty
// Filename encodes an empty (unused) slot.
func Encode(e Entry, b []byte) errors.DriverError {
	if len(b) != Size {
		return errors.ErrIO.WithMessage("short directory entry buffer")
	}
	if TooLong(e.Filename) {
		return errors.ErrNameTooLong.WithMessage(e.Filename)
	}

	for i := range b[:FilenameSize] {
		b[i] = 0
	}
	copy(b[:FilenameSize], e.Filename)
	binary.LittleEndian.PutUint32(b[FilenameSize:FilenameSize+4], e.RawSize)
	binary.LittleEndian.PutUint16(b[FilenameSize+4:FilenameSize+6], e.Cluster)
	return nil
}

// EntryOffset returns the byte offset of the index'th entry within a
// cluster's data region.
func EntryOffset(index int) int {
	return index * Size
}
