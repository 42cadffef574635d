package digest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dargueta/ghostfs/internal/digest"
)

func TestCompute_Deterministic(t *testing.T) {
	header := []byte{0x05, 0x00}
	cluster0 := make([]byte, 4096)

	a := digest.Compute(header, cluster0)
	b := digest.Compute(header, cluster0)
	assert.Equal(t, a, b)
}

func TestCompute_DiffersOnSingleByteChange(t *testing.T) {
	header := []byte{0x05, 0x00}
	cluster0 := make([]byte, 4096)

	before := digest.Compute(header, cluster0)
	cluster0[100] ^= 0x01
	after := digest.Compute(header, cluster0)

	assert.NotEqual(t, before, after)
}
