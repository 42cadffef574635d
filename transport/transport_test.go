package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/transport"
)

func TestInMemory_ReadWriteRoundTrip(t *testing.T) {
	tp := transport.InMemory(4096)
	assert.EqualValues(t, 4096, tp.Capacity())

	payload := []byte("hello, ghostfs")
	require.NoError(t, tp.WriteAt(payload, 100))

	buf := make([]byte, len(payload))
	require.NoError(t, tp.ReadAt(buf, 100))
	assert.Equal(t, payload, buf)
}

func TestInMemory_ReadPastCapacityFails(t *testing.T) {
	tp := transport.InMemory(16)
	buf := make([]byte, 8)
	err := tp.ReadAt(buf, 12)
	require.Error(t, err)
}

func TestInMemory_NegativeOffsetFails(t *testing.T) {
	tp := transport.InMemory(16)
	buf := make([]byte, 8)
	err := tp.WriteAt(buf, -1)
	require.Error(t, err)
}
