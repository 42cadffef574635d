// Package testutil collects the small helpers every ghostfs test package
// reaches for: a ready-to-use in-memory carrier, and a one-call
// format+mount. Kept separate from the package under test the same way
// dargueta-disko's testing/ package supplies shared fixtures to its
// driver test suites.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs"
	"github.com/dargueta/ghostfs/transport"
)

// DefaultCapacity is large enough for 15 clusters, comfortably
// exercising chains without making tests slow.
const DefaultCapacity = 64 * 1024

// NewTransport returns a freshly zeroed in-memory Transport of capacity
// bytes.
func NewTransport(capacity uint64) transport.Transport {
	return transport.InMemory(capacity)
}

// MustFormatAndMount formats a fresh in-memory carrier of capacity bytes
// and mounts it, failing the test immediately on any error.
func MustFormatAndMount(t *testing.T, capacity uint64) (*ghostfs.Filesystem, transport.Transport) {
	t.Helper()

	tp := NewTransport(capacity)
	require.Nil(t, ghostfs.Format(tp))

	fs, err := ghostfs.Mount(tp, MountOptions())
	require.Nil(t, err)

	return fs, tp
}

// MountOptions returns a fixed, deterministic MountOptions suitable for
// tests (no reliance on wall-clock time affecting assertions).
func MountOptions() ghostfs.MountOptions {
	return ghostfs.MountOptions{
		UID:       1000,
		GID:       1000,
		MountTime: time.Unix(1700000000, 0).UTC(),
	}
}

// RandomBytes returns a deterministic pseudo-random byte slice of length
// n, seeded by seed. It's deterministic (not backed by crypto/rand or
// math/rand's global source) so test failures reproduce byte-for-byte.
func RandomBytes(n int, seed uint32) []byte {
	out := make([]byte, n)
	state := seed | 1
	for i := range out {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		out[i] = byte(state)
	}
	return out
}
