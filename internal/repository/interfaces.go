package repository

import (
	"context"
	"errors"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("conflict")
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, page models.Page) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	// Update writes name, email, password digest and admin flag.
	Update(ctx context.Context, u models.User) (models.User, error)
	SetRememberDigest(ctx context.Context, id string, digest *string) error
	Delete(ctx context.Context, id string) error
}

type Relationships interface {
	// Create is idempotent: an existing edge is left as is.
	// Create reports whether a new edge was inserted.
	Create(ctx context.Context, followerID, followedID string) (bool, error)
	// Delete reports whether an edge was removed.
	Delete(ctx context.Context, followerID, followedID string) (bool, error)
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	Following(ctx context.Context, userID string, page models.Page) ([]models.User, error)
	Followers(ctx context.Context, userID string, page models.Page) ([]models.User, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	// DeleteAllFor removes every edge where userID is either endpoint.
	DeleteAllFor(ctx context.Context, userID string) error
}

type Microposts interface {
	Create(ctx context.Context, m models.Micropost) (models.Micropost, error)
	GetByID(ctx context.Context, id string) (models.Micropost, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	ListByUser(ctx context.Context, userID string, page models.Page) ([]models.Micropost, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// Feed returns posts by userID or any user userID follows, newest first.
	Feed(ctx context.Context, userID string, page models.Page) ([]models.FeedItem, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Store groups the repositories. Repositories obtained from the Store
// passed to WithTx's callback run inside one transaction; the transaction
// commits when fn returns nil and rolls back otherwise.
type Store interface {
	Users() Users
	Relationships() Relationships
	Microposts() Microposts
	AuditLogs() AuditLogs
	WithTx(ctx context.Context, fn func(Store) error) error
}
