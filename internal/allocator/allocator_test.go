package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/internal/allocator"
	"github.com/dargueta/ghostfs/internal/clustercache"
)

func newCache(t *testing.T, count uint16) *clustercache.Cache {
	backing := make([][]byte, count)
	for i := range backing {
		backing[i] = make([]byte, clustercache.Size)
	}
	fetch := func(idx uint16, buf []byte) errors.DriverError {
		copy(buf, backing[idx])
		return nil
	}
	flush := func(idx uint16, buf []byte) errors.DriverError {
		copy(backing[idx], buf)
		return nil
	}
	return clustercache.New(count, fetch, flush)
}

func TestAlloc_SingleCluster(t *testing.T) {
	cache := newCache(t, 8)
	a := allocator.New(cache, 8, 7)

	first, err := a.Alloc(1, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)
	assert.EqualValues(t, 6, a.FreeClusters())

	cluster, err := cache.Get(first)
	require.NoError(t, err)
	assert.True(t, clustercache.IsUsed(cluster))
	assert.EqualValues(t, 0, clustercache.NextPointer(cluster))
}

func TestAlloc_ChainsMultipleClusters(t *testing.T) {
	cache := newCache(t, 8)
	a := allocator.New(cache, 8, 7)

	first, err := a.Alloc(3, true)
	require.NoError(t, err)
	assert.EqualValues(t, 4, a.FreeClusters())

	idx, _, err := cache.At(first, 2)
	require.NoError(t, err)
	assert.NotEqualValues(t, first, idx)

	_, _, err = cache.At(first, 3)
	require.Error(t, err)
}

func TestAlloc_NoSpaceRollsBack(t *testing.T) {
	cache := newCache(t, 4)
	a := allocator.New(cache, 4, 3)

	_, err := a.Alloc(5, true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrNoSpace, err.Kind())
	assert.EqualValues(t, 3, a.FreeClusters())

	for i := uint16(1); i < 4; i++ {
		cluster, err := cache.Get(i)
		require.NoError(t, err)
		assert.False(t, clustercache.IsUsed(cluster), "cluster %d should have been rolled back", i)
	}
}

func TestFreeChain_RestoresFreeCount(t *testing.T) {
	cache := newCache(t, 8)
	a := allocator.New(cache, 8, 7)

	first, err := a.Alloc(3, true)
	require.NoError(t, err)
	require.EqualValues(t, 4, a.FreeClusters())

	require.NoError(t, a.FreeChain(first))
	assert.EqualValues(t, 7, a.FreeClusters())

	for i := uint16(1); i < 8; i++ {
		cluster, err := cache.Get(i)
		require.NoError(t, err)
		assert.False(t, clustercache.IsUsed(cluster))
	}
}

func TestFreeChain_ZeroIsNoOp(t *testing.T) {
	cache := newCache(t, 4)
	a := allocator.New(cache, 4, 3)
	require.NoError(t, a.FreeChain(0))
	assert.EqualValues(t, 3, a.FreeClusters())
}
