package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutGetDelete(t *testing.T) {
	backend, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.EnsureBucket(ctx))

	body := "fake image bytes"
	require.NoError(t, backend.Put(ctx, "avatars/u1.png", strings.NewReader(body), int64(len(body)), "image/png"))

	reader, err := backend.Get(ctx, "avatars/u1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, body, string(data))

	require.NoError(t, backend.Delete(ctx, "avatars/u1.png"))
	_, err = backend.Get(ctx, "avatars/u1.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalDeleteMissingIsNoError(t *testing.T) {
	backend, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, backend.Delete(context.Background(), "avatars/none.png"))
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	backend, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"../escape.png", "a/../../escape.png", "/abs.png", "."} {
		assert.Error(t, backend.Put(ctx, key, strings.NewReader("x"), 1, "image/png"), key)
	}
}

func TestLocalRequiresDir(t *testing.T) {
	_, err := NewLocalClient("  ")
	assert.Error(t, err)
}
