package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

func feedIDs(t *testing.T, f fixture, u models.User) map[string]bool {
	t.Helper()
	items, err := f.feed.Feed(context.Background(), u.ID, models.NewPage(1, 100))
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, it := range items {
		ids[it.ID] = true
	}
	return ids
}

func TestFeedHasRightPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	michael := f.register(t, "Michael", "michael@example.com")
	archer := f.register(t, "Archer", "archer@example.com")
	lana := f.register(t, "Lana", "lana@example.com")
	require.NoError(t, f.rels.Follow(ctx, michael.ID, lana.ID))

	var lanaPosts, michaelPosts, archerPosts []models.Micropost
	for i := 0; i < 3; i++ {
		lanaPosts = append(lanaPosts, f.post(t, lana, "lana"))
		michaelPosts = append(michaelPosts, f.post(t, michael, "michael"))
		archerPosts = append(archerPosts, f.post(t, archer, "archer"))
	}

	feed := feedIDs(t, f, michael)
	for _, p := range lanaPosts {
		assert.True(t, feed[p.ID], "followed user's post")
	}
	for _, p := range michaelPosts {
		assert.True(t, feed[p.ID], "own post")
	}
	for _, p := range archerPosts {
		assert.False(t, feed[p.ID], "unfollowed user's post")
	}

	// archer follows nobody, so only archer's own posts show up
	archerFeed := feedIDs(t, f, archer)
	assert.Len(t, archerFeed, 3)
	for _, p := range archerPosts {
		assert.True(t, archerFeed[p.ID])
	}
}

func TestFeedOrderingAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	require.NoError(t, f.rels.Follow(ctx, a.ID, b.ID))

	first := f.post(t, a, "first")
	second := f.post(t, b, "second")
	third := f.post(t, a, "third")

	page1, err := f.feed.Feed(ctx, a.ID, models.NewPage(1, 2))
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, third.ID, page1[0].ID)
	assert.Equal(t, second.ID, page1[1].ID)
	assert.Equal(t, "B", page1[1].Author.Name)

	page2, err := f.feed.Feed(ctx, a.ID, models.NewPage(2, 2))
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, first.ID, page2[0].ID)
}

func TestFeedAfterUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", "a@example.com")
	b := f.register(t, "B", "b@example.com")
	require.NoError(t, f.rels.Follow(ctx, a.ID, b.ID))
	p := f.post(t, b, "hello")
	assert.True(t, feedIDs(t, f, a)[p.ID])

	require.NoError(t, f.rels.Unfollow(ctx, a.ID, b.ID))
	assert.False(t, feedIDs(t, f, a)[p.ID])
}
