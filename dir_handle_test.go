package ghostfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/testutil"
)

func TestOpendir_ListsEntries(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)
	require.Nil(t, fs.Create("/a"))
	require.Nil(t, fs.Create("/b"))
	require.Nil(t, fs.Mkdir("/c"))

	dh, err := fs.Opendir("/")
	require.Nil(t, err)

	var names []string
	for {
		name, err := dh.NextEntry()
		require.Nil(t, err)
		if name == "" {
			break
		}
		names = append(names, name)
	}

	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
	require.Nil(t, dh.Closedir())
}

func TestOpendir_OnFileFails(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)
	require.Nil(t, fs.Create("/a"))

	_, err := fs.Opendir("/a")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrNotDir, err.Kind())
}

func TestOpendir_EmptyDirYieldsNoEntries(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	dh, err := fs.Opendir("/")
	require.Nil(t, err)

	name, err := dh.NextEntry()
	require.Nil(t, err)
	assert.Equal(t, "", name)
}
