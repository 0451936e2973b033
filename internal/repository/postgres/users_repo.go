package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

type usersRepo struct{ db DB }

const userColumns = `id, name, email, password_digest, remember_digest, admin, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordDigest, &u.RememberDigest, &u.Admin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()
	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_digest, admin)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordDigest, u.Admin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", mapErr(err))
	}
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, fmt.Errorf("user %q: %w", id, mapErr(pgx.ErrNoRows))
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, fmt.Errorf("user %q: %w", id, mapErr(err))
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return models.User{}, fmt.Errorf("user by email: %w", mapErr(err))
	}
	return u, nil
}

func (r *usersRepo) List(ctx context.Context, page models.Page) ([]models.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collectUsers(rows)
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *usersRepo) Update(ctx context.Context, u models.User) (models.User, error) {
	err := r.db.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, password_digest = $4, admin = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordDigest, u.Admin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("update user %q: %w", u.ID, mapErr(err))
	}
	return u, nil
}

func (r *usersRepo) SetRememberDigest(ctx context.Context, id string, digest *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET remember_digest = $2 WHERE id = $1`, id, digest)
	if err != nil {
		return fmt.Errorf("set remember digest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %q: %w", id, mapErr(pgx.ErrNoRows))
	}
	return nil
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %q: %w", id, mapErr(pgx.ErrNoRows))
	}
	return nil
}
