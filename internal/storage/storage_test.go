package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyCart, []byte("v1")))
	got, err := s.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	got[0] = 'x'
	again, _ := s.Get(ctx, KeyCart)
	assert.Equal(t, []byte("v1"), again, "returned slices must not alias stored data")

	require.NoError(t, s.Delete(ctx, KeyCart))
	_, err = s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var out map[string]int
	found, err := GetJSON(ctx, s, KeyLastOrder, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, KeyLastOrder, map[string]int{"a": 1}))
	found, err = GetJSON(ctx, s, KeyLastOrder, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, out["a"])

	require.NoError(t, s.Set(ctx, KeyLastOrder, []byte("{broken")))
	_, err = GetJSON(ctx, s, KeyLastOrder, &out)
	assert.Error(t, err)
}

func TestStringHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	v, err := GetString(ctx, s, KeyUserID)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SetString(ctx, s, KeyUserID, "user-1"))
	v, err = GetString(ctx, s, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)
}

func TestMemoryProviderIsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.Open("a").Set(ctx, KeyLocale, []byte("ar")))

	_, err := p.Open("b").Get(ctx, KeyLocale)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := p.Open("a").Get(ctx, KeyLocale)
	require.NoError(t, err)
	assert.Equal(t, "ar", string(got))
}

func TestMemoryProviderPurgesStaleNamespaces(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	var _ Purger = p
	idle := p.Open("cookieless")
	_, err := idle.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, p.Len())

	held := p.Open("a")
	require.NoError(t, held.Set(ctx, KeyLocale, []byte("ar")))
	require.NoError(t, p.Open("b").Set(ctx, KeyLocale, []byte("en")))
	assert.Equal(t, 2, p.Len())

	purged, err := p.PurgeBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = p.PurgeBefore(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Zero(t, p.Len())

	_, err = p.Open("b").Get(ctx, KeyLocale)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, held.Set(ctx, KeyUserID, []byte("u1")))
	assert.Equal(t, 1, p.Len())
	got, err := p.Open("a").Get(ctx, KeyLocale)
	require.NoError(t, err)
	assert.Equal(t, "ar", string(got))
}

func TestSealedEncryptsSelectedKeys(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s := NewSealed(inner, "secret", KeyToken)

	require.NoError(t, s.Set(ctx, KeyToken, []byte("jwt-value")))
	require.NoError(t, s.Set(ctx, KeyUserID, []byte("user-1")))

	raw, err := inner.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "jwt-value")

	plain, err := inner.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", string(plain))

	opened, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", string(opened))
}

func TestSealedRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()

	require.NoError(t, NewSealed(inner, "one", KeyToken).Set(ctx, KeyToken, []byte("jwt")))

	_, err := NewSealed(inner, "two", KeyToken).Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrUnsealFailed)

	require.NoError(t, inner.Set(ctx, KeyToken, []byte("short")))
	_, err = NewSealed(inner, "one", KeyToken).Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrUnsealFailed)
}

func TestSealedProvider(t *testing.T) {
	ctx := context.Background()
	p := NewSealedProvider(NewMemoryProvider(), "secret", KeyToken)

	require.NoError(t, p.Open("s1").Set(ctx, KeyToken, []byte("t")))
	got, err := p.Open("s1").Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "t", string(got))
}
