package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

type micropostsRepo struct{ db DB }

const micropostColumns = `id, user_id, content, image_url, created_at`

func (r *micropostsRepo) Create(ctx context.Context, m models.Micropost) (models.Micropost, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO microposts (id, user_id, content, image_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		m.ID, m.UserID, m.Content, m.ImageURL,
	).Scan(&m.CreatedAt)
	if err != nil {
		return models.Micropost{}, fmt.Errorf("insert micropost: %w", mapErr(err))
	}
	return m, nil
}

func (r *micropostsRepo) GetByID(ctx context.Context, id string) (models.Micropost, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Micropost{}, fmt.Errorf("micropost %q: %w", id, mapErr(pgx.ErrNoRows))
	}
	var m models.Micropost
	err := r.db.QueryRow(ctx, `SELECT `+micropostColumns+` FROM microposts WHERE id = $1`, id).
		Scan(&m.ID, &m.UserID, &m.Content, &m.ImageURL, &m.CreatedAt)
	if err != nil {
		return models.Micropost{}, fmt.Errorf("micropost %q: %w", id, mapErr(err))
	}
	return m, nil
}

func (r *micropostsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM microposts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete micropost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("micropost %q: %w", id, mapErr(pgx.ErrNoRows))
	}
	return nil
}

func (r *micropostsRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM microposts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete microposts: %w", err)
	}
	return nil
}

func (r *micropostsRepo) ListByUser(ctx context.Context, userID string, page models.Page) ([]models.Micropost, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+micropostColumns+` FROM microposts
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list microposts: %w", err)
	}
	defer rows.Close()

	out := []models.Micropost{}
	for rows.Next() {
		var m models.Micropost
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *micropostsRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM microposts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count microposts: %w", err)
	}
	return n, nil
}

// Feed resolves the followed set with a subquery so the whole page is one
// round trip regardless of how many users are followed.
func (r *micropostsRepo) Feed(ctx context.Context, userID string, page models.Page) ([]models.FeedItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.id, m.user_id, m.content, m.image_url, m.created_at, u.name, u.email
		   FROM microposts m
		   JOIN users u ON u.id = m.user_id
		  WHERE m.user_id IN (SELECT followed_id FROM relationships WHERE follower_id = $1)
		     OR m.user_id = $1
		  ORDER BY m.created_at DESC, m.id DESC
		  LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	defer rows.Close()

	out := []models.FeedItem{}
	for rows.Next() {
		var it models.FeedItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Content, &it.ImageURL, &it.CreatedAt, &it.Author.Name, &it.Author.Email); err != nil {
			return nil, err
		}
		it.Author.ID = it.UserID
		out = append(out, it)
	}
	return out, rows.Err()
}
