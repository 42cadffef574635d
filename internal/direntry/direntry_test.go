package direntry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/internal/direntry"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	original := direntry.NewFileEntry("hello.txt", 1234, 7)

	buf := make([]byte, direntry.Size)
	require.NoError(t, direntry.Encode(original, buf))

	decoded, err := direntry.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
	assert.False(t, decoded.IsDir())
	assert.EqualValues(t, 1234, decoded.ByteSize())
}

func TestEncodeDecode_Directory(t *testing.T) {
	original := direntry.NewDirEntry("subdir", 9)

	buf := make([]byte, direntry.Size)
	require.NoError(t, direntry.Encode(original, buf))

	decoded, err := direntry.Decode(buf)
	require.NoError(t, err)
	assert.True(t, decoded.IsDir())
	assert.EqualValues(t, 0, decoded.ByteSize())
	assert.EqualValues(t, 9, decoded.Cluster)
}

func TestEncode_EmptySlot(t *testing.T) {
	buf := make([]byte, direntry.Size)
	for i := range buf {
		buf[i] = 0xAA
	}
	require.NoError(t, direntry.Encode(direntry.Entry{}, buf))

	decoded, err := direntry.Decode(buf)
	require.NoError(t, err)
	assert.False(t, decoded.Used())
	assert.Equal(t, "", decoded.Filename)
}

func TestEncode_NameTooLong(t *testing.T) {
	name := make([]byte, direntry.MaxNameLength+1)
	for i := range name {
		name[i] = 'a'
	}

	buf := make([]byte, direntry.Size)
	err := direntry.Encode(direntry.NewFileEntry(string(name), 0, 0), buf)
	require.Error(t, err)
}

func TestRootEntry_IsSyntheticDirectory(t *testing.T) {
	root := direntry.RootEntry()
	assert.True(t, root.IsDir())
	assert.False(t, root.Used())
	assert.EqualValues(t, 0, root.Cluster)
}
