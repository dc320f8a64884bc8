package listcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoad_CachesValue(t *testing.T) {
	c, err := New[[]string](8)
	require.NoError(t, err)

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	ctx := context.Background()

	v, err := c.GetOrLoad(ctx, "recipes/general", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	_, err = c.GetOrLoad(ctx, "recipes/general", load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read must hit the cache")
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c, err := New[[]string](8)
	require.NoError(t, err)

	boom := errors.New("boom")
	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return []string{"ok"}, nil
	}

	ctx := context.Background()

	_, err = c.GetOrLoad(ctx, "k", load)
	require.ErrorIs(t, err, boom)

	v, err := c.GetOrLoad(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, v)
}

func TestInvalidatePrefix(t *testing.T) {
	c, err := New[int](8)
	require.NoError(t, err)

	ctx := context.Background()
	one := func(ctx context.Context) (int, error) { return 1, nil }

	_, _ = c.GetOrLoad(ctx, "recipes/general", one)
	_, _ = c.GetOrLoad(ctx, "recipes/search/soup", one)
	_, _ = c.GetOrLoad(ctx, "profile/u1", one)
	require.Equal(t, 3, c.Len())

	c.InvalidatePrefix("recipes/")

	assert.Equal(t, 1, c.Len())

	calls := 0
	_, _ = c.GetOrLoad(ctx, "profile/u1", func(ctx context.Context) (int, error) {
		calls++
		return 1, nil
	})
	assert.Equal(t, 0, calls, "unrelated key must survive prefix invalidation")
}
