package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirProviderRoundTrip(t *testing.T) {
	p, err := NewDirProvider(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Set(ctx, "abc123", []byte(`{"snr_wall_db":9.96}`)))

	got, err := p.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, `{"snr_wall_db":9.96}`, string(got))
}

func TestDirProviderMiss(t *testing.T) {
	p, err := NewDirProvider(t.TempDir())
	require.NoError(t, err)

	_, err = p.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDirProviderDel(t *testing.T) {
	p, err := NewDirProvider(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Set(ctx, "gone", []byte("x")))
	require.NoError(t, p.Del(ctx, "gone"))

	_, err = p.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, p.Del(ctx, "gone"))
}

func TestDirProviderOverwrite(t *testing.T) {
	p, err := NewDirProvider(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Set(ctx, "k", []byte("old")))
	require.NoError(t, p.Set(ctx, "k", []byte("new")))

	got, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestDirProviderRejectsUnsafeKeys(t *testing.T) {
	p, err := NewDirProvider(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"", "../escape", "a/b", "a\\b", "sp ace"} {
		_, err := p.Get(ctx, key)
		assert.Error(t, err, "key %q", key)
		assert.NotErrorIs(t, err, ErrCacheMiss, "key %q", key)
	}
}

func TestDirProviderRejectsEmptyDir(t *testing.T) {
	_, err := NewDirProvider("")
	assert.Error(t, err)
}

func TestNoopProviderAlwaysMisses(t *testing.T) {
	var p NoopProvider
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v")))
	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, p.Del(ctx, "k"))
	assert.NoError(t, p.Close())
}
