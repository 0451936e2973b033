package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

func seedUser(t *testing.T, s *Store, name, email string) models.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), models.User{Name: name, Email: email, PasswordDigest: "x"})
	require.NoError(t, err)
	return u
}

func follow(t *testing.T, s *Store, from, to models.User) {
	t.Helper()
	_, err := s.Relationships().Create(context.Background(), from.ID, to.ID)
	require.NoError(t, err)
}

func TestUsersEmailUniqueIgnoresCase(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "Alice", "alice@example.com")

	_, err := s.Users().Create(context.Background(), models.User{Name: "Other", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	u, err := s.Users().GetByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
}

func TestRelationshipsCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")
	b := seedUser(t, s, "B", "b@example.com")

	created, err := s.Relationships().Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Relationships().Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := s.Relationships().CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRelationshipsListingKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")
	c := seedUser(t, s, "C", "c@example.com")
	b := seedUser(t, s, "B", "b@example.com")

	follow(t, s, a, b)
	follow(t, s, a, c)

	got, err := s.Relationships().Following(ctx, a.ID, models.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, c.ID, got[1].ID)

	page2, err := s.Relationships().Following(ctx, a.ID, models.NewPage(2, 1))
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, c.ID, page2[0].ID)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")
	b := seedUser(t, s, "B", "b@example.com")
	follow(t, s, a, b)
	follow(t, s, b, a)
	_, err := s.Microposts().Create(ctx, models.Micropost{UserID: a.ID, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, a.ID))

	followers, err := s.Relationships().CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, followers)
	n, err := s.Microposts().CountByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithTxDiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Microposts().Create(ctx, models.Micropost{UserID: a.ID, Content: "lost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.Microposts().CountByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")

	err := s.WithTx(ctx, func(tx repo.Store) error {
		_, err := tx.Microposts().Create(ctx, models.Micropost{UserID: a.ID, Content: "kept"})
		return err
	})
	require.NoError(t, err)

	n, err := s.Microposts().CountByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithTxRollbackKeepsOtherWriters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	done := make(chan error, 1)

	err := s.WithTx(ctx, func(tx repo.Store) error {
		go func() {
			_, err := s.Users().Create(ctx, models.User{Name: "B", Email: "b@example.com"})
			done <- err
		}()
		if _, err := tx.Users().Create(ctx, models.User{Name: "A", Email: "a@example.com"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Users().GetByEmail(ctx, "b@example.com")
	assert.NoError(t, err)
	_, err = s.Users().GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestFeedNewestFirstWithAuthors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "A", "a@example.com")
	b := seedUser(t, s, "B", "b@example.com")
	follow(t, s, a, b)

	_, err := s.Microposts().Create(ctx, models.Micropost{UserID: a.ID, Content: "first"})
	require.NoError(t, err)
	_, err = s.Microposts().Create(ctx, models.Micropost{UserID: b.ID, Content: "second"})
	require.NoError(t, err)

	items, err := s.Microposts().Feed(ctx, a.ID, models.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Content)
	assert.Equal(t, "B", items[0].Author.Name)
	assert.Equal(t, "first", items[1].Content)
}
