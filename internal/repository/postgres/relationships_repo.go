package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

type relationshipsRepo struct{ db DB }

// uuids reports whether every id can be compared against a uuid column.
// Anything else cannot match a row, and postgres would reject it with 22P02.
func uuids(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func (r *relationshipsRepo) Create(ctx context.Context, followerID, followedID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO relationships (follower_id, followed_id)
		 VALUES ($1, $2)
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("insert relationship: %w", mapErr(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *relationshipsRepo) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	if !uuids(followerID, followedID) {
		return false, nil
	}
	tag, err := r.db.Exec(ctx,
		`DELETE FROM relationships WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("delete relationship: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *relationshipsRepo) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	if !uuids(followerID, followedID) {
		return false, nil
	}
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM relationships WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("relationship exists: %w", err)
	}
	return ok, nil
}

// Following lists the users userID follows, in the order they were followed.
func (r *relationshipsRepo) Following(ctx context.Context, userID string, page models.Page) ([]models.User, error) {
	if !uuids(userID) {
		return []models.User{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.name, u.email, u.password_digest, u.remember_digest, u.admin, u.created_at, u.updated_at
		   FROM relationships r
		   JOIN users u ON u.id = r.followed_id
		  WHERE r.follower_id = $1
		  ORDER BY r.created_at, r.id
		  LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("following: %w", err)
	}
	return collectUsers(rows)
}

// Followers lists the users following userID, in the order they followed.
func (r *relationshipsRepo) Followers(ctx context.Context, userID string, page models.Page) ([]models.User, error) {
	if !uuids(userID) {
		return []models.User{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.name, u.email, u.password_digest, u.remember_digest, u.admin, u.created_at, u.updated_at
		   FROM relationships r
		   JOIN users u ON u.id = r.follower_id
		  WHERE r.followed_id = $1
		  ORDER BY r.created_at, r.id
		  LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("followers: %w", err)
	}
	return collectUsers(rows)
}

func (r *relationshipsRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	if !uuids(userID) {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM relationships WHERE follower_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count following: %w", err)
	}
	return n, nil
}

func (r *relationshipsRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	if !uuids(userID) {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM relationships WHERE followed_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return n, nil
}

func (r *relationshipsRepo) DeleteAllFor(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete relationships: %w", err)
	}
	return nil
}
