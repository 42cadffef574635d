package ghostfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/errors"
	"github.com/dargueta/ghostfs/testutil"
)

func TestCreateAndGetattr(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/foo.txt"))

	attr, err := fs.Getattr("/foo.txt")
	require.Nil(t, err)
	assert.EqualValues(t, 0, attr.Size)
}

func TestCreate_DuplicateNameFails(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/foo.txt"))
	err := fs.Create("/foo.txt")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrExists, err.Kind())
}

func TestMkdirAndNested(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Mkdir("/sub"))
	require.Nil(t, fs.Create("/sub/inner.txt"))

	attr, err := fs.Getattr("/sub")
	require.Nil(t, err)
	assert.NotZero(t, attr.Mode&0x4000) // IFDIR bit set somewhere in mode

	_, err = fs.Getattr("/sub/inner.txt")
	require.Nil(t, err)
}

func TestUnlink_RemovesFile(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/foo.txt"))
	require.Nil(t, fs.Unlink("/foo.txt"))

	_, err := fs.Getattr("/foo.txt")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrNotFound, err.Kind())
}

func TestUnlink_OnDirectoryFails(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Mkdir("/sub"))
	err := fs.Unlink("/sub")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrIsDir, err.Kind())
}

func TestRmdir_RequiresEmpty(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Mkdir("/sub"))
	require.Nil(t, fs.Create("/sub/file.txt"))

	err := fs.Rmdir("/sub")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrNotEmpty, err.Kind())

	require.Nil(t, fs.Unlink("/sub/file.txt"))
	require.Nil(t, fs.Rmdir("/sub"))
}

func TestRmdir_RejectsRoot(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	err := fs.Rmdir("/")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrInval, err.Kind())
}

func TestRename_SimpleMove(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/a.txt"))
	require.Nil(t, fs.Rename("/a.txt", "/b.txt"))

	_, err := fs.Getattr("/a.txt")
	assert.Equal(t, errors.ErrNotFound, err.Kind())

	_, err = fs.Getattr("/b.txt")
	require.Nil(t, err)
}

func TestRename_ClobbersExistingFile(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/a.txt"))
	require.Nil(t, fs.Create("/b.txt"))

	require.Nil(t, fs.Rename("/a.txt", "/b.txt"))

	_, err := fs.Getattr("/a.txt")
	assert.Equal(t, errors.ErrNotFound, err.Kind())
	_, err = fs.Getattr("/b.txt")
	require.Nil(t, err)
}

func TestRename_RefusesDirOverFile(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Mkdir("/a"))
	require.Nil(t, fs.Create("/b"))

	err := fs.Rename("/a", "/b")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrNotDir, err.Kind())
}

func TestMkdir_NestedTwoLevelsDeep(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Mkdir("/a"))
	require.Nil(t, fs.Mkdir("/a/b"))
	require.Nil(t, fs.Create("/a/b/c"))
	require.Nil(t, fs.Create("/a/inner"))

	_, err := fs.Getattr("/a/b/c")
	require.Nil(t, err)
	_, err = fs.Getattr("/a/inner")
	require.Nil(t, err)
}

func TestRename_RefusesFileOverNonEmptyDir(t *testing.T) {
	fs, _ := testutil.MustFormatAndMount(t, testutil.DefaultCapacity)

	require.Nil(t, fs.Create("/a"))
	require.Nil(t, fs.Mkdir("/b"))
	require.Nil(t, fs.Create("/b/inner"))

	err := fs.Rename("/a", "/b")
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrIsDir, err.Kind())
}
