package notebook

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkemata/reasonreport-backend/models"
)

func TestDeriveSlug(t *testing.T) {
	assert.Equal(t, "my-page", DeriveSlug("My Page"))
	assert.Equal(t, "cafe-creme", DeriveSlug("Café  Crème"))
	assert.Equal(t, "hello-world", DeriveSlug("  Hello, World!  "))

	// cùng tiêu đề luôn cho cùng slug
	assert.Equal(t, DeriveSlug("My Page"), DeriveSlug("My Page"))
}

func TestEnsureUniqueFreshSlug(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	got, err := registry.EnsureUnique(context.Background(), "my-page", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "my-page", got)
}

func TestEnsureUniqueIdempotentForOwner(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	self := uuid.New()
	store.putDirect(&models.Notebook{ID: self, AuthorID: uuid.New(), Slug: "my-page"})

	got, err := registry.EnsureUnique(context.Background(), "my-page", self)
	require.NoError(t, err)
	assert.Equal(t, "my-page", got)
}

func TestEnsureUniqueIncrementsOnCollision(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	store.putDirect(&models.Notebook{ID: uuid.New(), AuthorID: uuid.New(), Slug: "my-page"})

	got, err := registry.EnsureUnique(context.Background(), "my-page", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "my-page-1", got)
}

func TestEnsureUniqueManyCollidersGetDistinctSuffixes(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	const n = 5
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		id := uuid.New()
		got, err := registry.EnsureUnique(context.Background(), "my-page", id)
		require.NoError(t, err)
		assert.False(t, seen[got], "slug %q cấp trùng", got)
		seen[got] = true
		store.putDirect(&models.Notebook{ID: id, AuthorID: uuid.New(), Slug: got})
	}

	assert.True(t, seen["my-page"])
	for i := 1; i < n; i++ {
		assert.True(t, seen[fmt.Sprintf("my-page-%d", i)])
	}
}

func TestResolveBySlug(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	nb := &models.Notebook{ID: uuid.New(), AuthorID: uuid.New(), Slug: "my-page"}
	store.putDirect(nb)

	got, err := registry.Resolve(context.Background(), "my-page")
	require.NoError(t, err)
	assert.Equal(t, nb.ID, got.ID)
}

func TestResolveByID(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	nb := &models.Notebook{ID: uuid.New(), AuthorID: uuid.New(), Slug: "my-page"}
	store.putDirect(nb)

	got, err := registry.Resolve(context.Background(), nb.ID.String())
	require.NoError(t, err)
	assert.Equal(t, nb.ID, got.ID)
}

// Identifier đúng định dạng UUID chỉ được tra theo id, kể cả khi có
// notebook mang slug trùng chuỗi đó.
func TestResolveTriesExactlyOneBranch(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	uuidLikeSlug := uuid.New().String()
	store.putDirect(&models.Notebook{ID: uuid.New(), AuthorID: uuid.New(), Slug: uuidLikeSlug})

	_, err := registry.Resolve(context.Background(), uuidLikeSlug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveNotFound(t *testing.T) {
	store := newMemStore()
	registry := NewSlugRegistry(store)

	_, err := registry.Resolve(context.Background(), "nothing-here")
	assert.ErrorIs(t, err, ErrNotFound)
}
