package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb, ttl), mr
}

func TestCreateAndGetRoundtrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ident := Identity{ID: 7, Fname: "Ana", Lname: "Cruz", Email: "ana@x.com", Role: RoleUser}

	token, err := store.Create(context.Background(), ident)
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes hex-encoded

	got, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ident, got)
}

func TestGetUnknownToken(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	_, err := store.Get(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroyInvalidatesImmediately(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	token, err := store.Create(context.Background(), Identity{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, store.Destroy(context.Background(), token))
	_, err = store.Get(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotFound)

	// Destroying again is not an error.
	assert.NoError(t, store.Destroy(context.Background(), token))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	token, err := store.Create(context.Background(), Identity{ID: 2, Role: RoleUser})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokensAreUnique(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	a, err := store.Create(context.Background(), Identity{ID: 1})
	require.NoError(t, err)
	b, err := store.Create(context.Background(), Identity{ID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
