package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mapCache struct {
	items   map[primitive.ObjectID]*Profile
	deletes int
}

func (m *mapCache) GetProfile(ctx context.Context, id primitive.ObjectID) (*Profile, bool) {
	p, ok := m.items[id]
	return p, ok
}

func (m *mapCache) SetProfile(ctx context.Context, profile *Profile) {
	m.items[profile.ID] = profile
}

func (m *mapCache) DeleteProfile(ctx context.Context, id primitive.ObjectID) {
	m.deletes++
	delete(m.items, id)
}

func TestCachedProfileRepo(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRepo()
	cache := &mapCache{items: map[primitive.ObjectID]*Profile{}}
	repo := NewCachedProfileRepo(store, cache)

	p := &Profile{Name: "Linus", Timezone: "Europe/Helsinki"}
	p.BeforeCreate(time.Now().UTC())
	_, err := repo.CreateProfile(ctx, p)
	require.NoError(t, err)

	found, err := repo.FindProfileByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linus", found.Name)
	assert.Contains(t, cache.items, p.ID, "lookup populates the cache")

	cache.items[p.ID] = &Profile{ID: p.ID, Name: "from cache"}
	found, err = repo.FindProfileByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "from cache", found.Name)

	_, err = repo.UpdateProfile(ctx, p.ID, map[string]interface{}{"timezone": "UTC"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.deletes)
	assert.NotContains(t, cache.items, p.ID)

	found, err = repo.FindProfileByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", found.Timezone)

	_, err = repo.FindProfileByID(ctx, primitive.NewObjectID())
	assert.True(t, IsKind(err, KindNotFound))
}
