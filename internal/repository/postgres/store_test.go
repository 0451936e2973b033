package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

const (
	aliceID = "6f1c1c2e-3b1a-4a63-9d43-1d6f0f0b0a01"
	bobID   = "6f1c1c2e-3b1a-4a63-9d43-1d6f0f0b0a02"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

var userCols = []string{"id", "name", "email", "password_digest", "remember_digest", "admin", "created_at", "updated_at"}

func TestUsersCreate(t *testing.T) {
	mock, s := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(pgxmock.AnyArg(), "Alice", "alice@example.com", "digest", false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u, err := s.Users().Create(context.Background(), models.User{Name: "Alice", Email: "alice@example.com", PasswordDigest: "digest"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersCreateDuplicateEmail(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(pgxmock.AnyArg(), "Alice", "alice@example.com", "digest", false).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})

	_, err := s.Users().Create(context.Background(), models.User{Name: "Alice", Email: "alice@example.com", PasswordDigest: "digest"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersGetByID(t *testing.T) {
	mock, s := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(aliceID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(aliceID, "Alice", "alice@example.com", "digest", nil, true, now, now))

	u, err := s.Users().GetByID(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.True(t, u.Admin)
	assert.Nil(t, u.RememberDigest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersGetByIDNotFound(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(aliceID).
		WillReturnRows(pgxmock.NewRows(userCols))

	_, err := s.Users().GetByID(context.Background(), aliceID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersGetByIDMalformedSkipsQuery(t *testing.T) {
	mock, s := newMock(t)

	_, err := s.Users().GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersSetRememberDigestMissingUser(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(`UPDATE users SET remember_digest`).
		WithArgs(aliceID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Users().SetRememberDigest(context.Background(), aliceID, nil)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsCreateIgnoresDuplicates(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(`(?s)INSERT INTO relationships .*ON CONFLICT \(follower_id, followed_id\) DO NOTHING`).
		WithArgs(aliceID, bobID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := s.Relationships().Create(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsCreateReportsInsert(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(`(?s)INSERT INTO relationships`).
		WithArgs(aliceID, bobID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := s.Relationships().Create(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsDeleteReportsRemoval(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(`DELETE FROM relationships WHERE follower_id = \$1 AND followed_id = \$2`).
		WithArgs(aliceID, bobID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM relationships WHERE follower_id = \$1 AND followed_id = \$2`).
		WithArgs(aliceID, bobID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	removed, err := s.Relationships().Delete(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Relationships().Delete(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsMalformedIDNeverQueries(t *testing.T) {
	mock, s := newMock(t)
	ctx := context.Background()
	rels := s.Relationships()

	removed, err := rels.Delete(ctx, aliceID, "abc")
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err := rels.Exists(ctx, "abc", bobID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := rels.CountFollowing(ctx, "abc")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = rels.CountFollowers(ctx, "abc")
	require.NoError(t, err)
	assert.Zero(t, n)

	users, err := rels.Followers(ctx, "abc", models.NewPage(1, 30))
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsFollowingOrderedByInsertion(t *testing.T) {
	mock, s := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)JOIN users u ON u.id = r.followed_id.*WHERE r.follower_id = \$1.*ORDER BY r.created_at, r.id`).
		WithArgs(aliceID, 30, 30).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(bobID, "Bob", "bob@example.com", "digest", nil, false, now, now))

	users, err := s.Relationships().Following(context.Background(), aliceID, models.NewPage(2, 30))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bobID, users[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipsExists(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(aliceID, bobID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.Relationships().Exists(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMicropostsFeedIsSingleQuery(t *testing.T) {
	mock, s := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)WHERE m.user_id IN \(SELECT followed_id FROM relationships WHERE follower_id = \$1\)\s+OR m.user_id = \$1`).
		WithArgs(aliceID, 30, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "content", "image_url", "created_at", "name", "email"}).
			AddRow("p2", bobID, "hello", nil, now, "Bob", "bob@example.com").
			AddRow("p1", aliceID, "mine", nil, now.Add(-time.Minute), "Alice", "alice@example.com"))

	items, err := s.Microposts().Feed(context.Background(), aliceID, models.NewPage(1, 30))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bob", items[0].Author.Name)
	assert.Equal(t, bobID, items[0].Author.ID)
	assert.Equal(t, "mine", items[1].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMicropostsDeleteMissing(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec(`DELETE FROM microposts WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.Microposts().Delete(context.Background(), "p1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogsCreateDefaultsDetails(t *testing.T) {
	mock, s := newMock(t)
	id := aliceID

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("user", &id, "created", map[string]any{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AuditLogs().Create(context.Background(), models.AuditLog{EntityType: "user", EntityID: &id, Action: "created"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommits(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM microposts WHERE user_id = \$1`).WithArgs(aliceID).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM relationships WHERE follower_id = \$1 OR followed_id = \$1`).WithArgs(aliceID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(aliceID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx repo.Store) error {
		ctx := context.Background()
		if err := tx.Microposts().DeleteByUser(ctx, aliceID); err != nil {
			return err
		}
		if err := tx.Relationships().DeleteAllFor(ctx, aliceID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, aliceID)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mock, s := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM microposts WHERE user_id = \$1`).WithArgs(aliceID).WillReturnError(boom)
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx repo.Store) error {
		return tx.Microposts().DeleteByUser(context.Background(), aliceID)
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
