package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ghostfs/errors"
)

func TestGhostError_Error(t *testing.T) {
	assert.Equal(t, "no such file or directory", errors.ErrNotFound.Error())
}

func TestGhostError_Is(t *testing.T) {
	var err error = errors.ErrNotFound
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	assert.False(t, stderrors.Is(err, errors.ErrExists))
}

func TestWithMessage_PreservesKind(t *testing.T) {
	err := errors.ErrNameTooLong.WithMessage("component \"thisislong\"")
	require.Error(t, err)
	assert.Equal(t, errors.ErrNameTooLong, err.Kind())
	assert.True(t, stderrors.Is(err, errors.ErrNameTooLong))
	assert.Contains(t, err.Error(), "thisislong")
}

func TestWrapError_Unwraps(t *testing.T) {
	cause := stderrors.New("short read")
	err := errors.ErrIO.WrapError(cause)
	assert.Same(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, errors.ErrIO))
}

func TestErrno(t *testing.T) {
	assert.Equal(t, 2, errors.ErrNotFound.Errno())
	assert.Equal(t, 17, errors.ErrExists.Errno())

	wrapped := errors.ErrNotEmpty.WithMessage("/a/b")
	assert.Equal(t, 39, wrapped.Errno())
}
