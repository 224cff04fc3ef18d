package apl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAPLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth-data.json")
	store := NewFileAPL(path)
	ctx := context.Background()

	_, err := store.Get(ctx, "https://shop.example/graphql/")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, AuthData{
		SaleorAPIURL: "https://shop.example/graphql/",
		Token:        "app-token",
		AppID:        "QXBwOjE=",
	}))

	data, err := store.Get(ctx, "https://shop.example/graphql/")
	require.NoError(t, err)
	assert.Equal(t, "app-token", data.Token)
	assert.Equal(t, "QXBwOjE=", data.AppID)
}

func TestFileAPLKeepsEntriesPerInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth-data.json")
	store := NewFileAPL(path)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, AuthData{SaleorAPIURL: "https://a.example/graphql/", Token: "a"}))
	require.NoError(t, store.Set(ctx, AuthData{SaleorAPIURL: "https://b.example/graphql/", Token: "b"}))

	a, err := store.Get(ctx, "https://a.example/graphql/")
	require.NoError(t, err)
	b, err := store.Get(ctx, "https://b.example/graphql/")
	require.NoError(t, err)

	assert.Equal(t, "a", a.Token)
	assert.Equal(t, "b", b.Token)
}

func TestFileAPLSetRequiresAPIURL(t *testing.T) {
	store := NewFileAPL(filepath.Join(t.TempDir(), "auth-data.json"))
	err := store.Set(context.Background(), AuthData{Token: "orphan"})
	require.Error(t, err)
}
