// Package memory keeps every repository in process memory. It backs the
// "memory" storage mode and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

type state struct {
	users  map[string]models.User
	rels   []models.Relationship
	posts  map[string]models.Micropost
	audits []models.AuditLog
	relSeq int64
}

func (s *state) clone() *state {
	c := &state{
		users:  make(map[string]models.User, len(s.users)),
		rels:   append([]models.Relationship(nil), s.rels...),
		posts:  make(map[string]models.Micropost, len(s.posts)),
		audits: append([]models.AuditLog(nil), s.audits...),
		relSeq: s.relSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	return c
}

type clock struct{ last time.Time }

type Store struct {
	mu    sync.RWMutex
	data  *state
	clock *clock
}

var _ repo.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data: &state{
			users: map[string]models.User{},
			posts: map[string]models.Micropost{},
		},
		clock: &clock{},
	}
}

func (s *Store) Users() repo.Users                 { return usersRepo{s} }
func (s *Store) Relationships() repo.Relationships { return relationshipsRepo{s} }
func (s *Store) Microposts() repo.Microposts       { return micropostsRepo{s} }
func (s *Store) AuditLogs() repo.AuditLogs         { return auditLogsRepo{s} }

// WithTx runs fn against a private copy of the data and installs the copy
// only when fn succeeds. s stays locked for the whole call, so fn must use
// the store it is given and never s itself.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{data: s.data.clone(), clock: s.clock}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// AuditEntries returns a copy of the recorded audit log.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.data.audits...)
}

// now is strictly increasing so orderings by timestamp are stable.
// Callers hold s.mu; inside WithTx the parent lock covers the shared clock.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.clock.last) {
		t = s.clock.last.Add(time.Microsecond)
	}
	s.clock.last = t
	return t
}

func window[T any](items []T, page models.Page) []T {
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[off:end]...)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, repo.ErrNotFound)
}

type usersRepo struct{ s *Store }

func (r usersRepo) emailTaken(email, exceptID string) bool {
	for _, u := range r.s.data.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r usersRepo) Create(_ context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return models.User{}, fmt.Errorf("insert user: %w: users_email_lower_idx", repo.ErrConflict)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.data.users[u.ID] = u
	return u, nil
}

func (r usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return u, nil
}

func (r usersRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user by email: %w", repo.ErrNotFound)
}

func (r usersRepo) sorted() []models.User {
	out := make([]models.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r usersRepo) List(_ context.Context, page models.Page) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.sorted(), page), nil
}

func (r usersRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.data.users), nil
}

func (r usersRepo) Update(_ context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.users[u.ID]
	if !ok {
		return models.User{}, notFound("user", u.ID)
	}
	if r.emailTaken(u.Email, u.ID) {
		return models.User{}, fmt.Errorf("update user: %w: users_email_lower_idx", repo.ErrConflict)
	}
	cur.Name, cur.Email, cur.PasswordDigest, cur.Admin = u.Name, u.Email, u.PasswordDigest, u.Admin
	cur.UpdatedAt = r.s.now()
	r.s.data.users[u.ID] = cur
	return cur, nil
}

func (r usersRepo) SetRememberDigest(_ context.Context, id string, digest *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return notFound("user", id)
	}
	if digest != nil {
		d := *digest
		digest = &d
	}
	u.RememberDigest = digest
	r.s.data.users[id] = u
	return nil
}

// Delete mirrors the ON DELETE CASCADE foreign keys of the SQL schema.
func (r usersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return notFound("user", id)
	}
	delete(r.s.data.users, id)
	r.s.data.rels = dropRelationships(r.s.data.rels, id)
	for pid, p := range r.s.data.posts {
		if p.UserID == id {
			delete(r.s.data.posts, pid)
		}
	}
	return nil
}

func dropRelationships(rels []models.Relationship, userID string) []models.Relationship {
	kept := rels[:0]
	for _, rel := range rels {
		if rel.FollowerID != userID && rel.FollowedID != userID {
			kept = append(kept, rel)
		}
	}
	return kept
}

type relationshipsRepo struct{ s *Store }

func (r relationshipsRepo) find(followerID, followedID string) int {
	for i, rel := range r.s.data.rels {
		if rel.FollowerID == followerID && rel.FollowedID == followedID {
			return i
		}
	}
	return -1
}

func (r relationshipsRepo) Create(_ context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[followerID]; !ok {
		return false, notFound("user", followerID)
	}
	if _, ok := r.s.data.users[followedID]; !ok {
		return false, notFound("user", followedID)
	}
	if r.find(followerID, followedID) >= 0 {
		return false, nil
	}
	r.s.data.relSeq++
	r.s.data.rels = append(r.s.data.rels, models.Relationship{
		ID:         r.s.data.relSeq,
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  r.s.now(),
	})
	return true, nil
}

func (r relationshipsRepo) Delete(_ context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.find(followerID, followedID)
	if i < 0 {
		return false, nil
	}
	r.s.data.rels = append(r.s.data.rels[:i], r.s.data.rels[i+1:]...)
	return true, nil
}

func (r relationshipsRepo) Exists(_ context.Context, followerID, followedID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(followerID, followedID) >= 0, nil
}

// rels are kept in insertion order, which is the listing order.
func (r relationshipsRepo) list(page models.Page, match func(models.Relationship) (string, bool)) []models.User {
	var out []models.User
	for _, rel := range r.s.data.rels {
		if id, ok := match(rel); ok {
			if u, found := r.s.data.users[id]; found {
				out = append(out, u)
			}
		}
	}
	return window(out, page)
}

func (r relationshipsRepo) Following(_ context.Context, userID string, page models.Page) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(page, func(rel models.Relationship) (string, bool) {
		return rel.FollowedID, rel.FollowerID == userID
	}), nil
}

func (r relationshipsRepo) Followers(_ context.Context, userID string, page models.Page) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(page, func(rel models.Relationship) (string, bool) {
		return rel.FollowerID, rel.FollowedID == userID
	}), nil
}

func (r relationshipsRepo) CountFollowing(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, rel := range r.s.data.rels {
		if rel.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (r relationshipsRepo) CountFollowers(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, rel := range r.s.data.rels {
		if rel.FollowedID == userID {
			n++
		}
	}
	return n, nil
}

func (r relationshipsRepo) DeleteAllFor(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.rels = dropRelationships(r.s.data.rels, userID)
	return nil
}

type micropostsRepo struct{ s *Store }

func (r micropostsRepo) Create(_ context.Context, m models.Micropost) (models.Micropost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[m.UserID]; !ok {
		return models.Micropost{}, notFound("user", m.UserID)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now()
	}
	r.s.data.posts[m.ID] = m
	return m, nil
}

func (r micropostsRepo) GetByID(_ context.Context, id string) (models.Micropost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.data.posts[id]
	if !ok {
		return models.Micropost{}, notFound("micropost", id)
	}
	return m, nil
}

func (r micropostsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.posts[id]; !ok {
		return notFound("micropost", id)
	}
	delete(r.s.data.posts, id)
	return nil
}

func (r micropostsRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.data.posts {
		if p.UserID == userID {
			delete(r.s.data.posts, id)
		}
	}
	return nil
}

func (r micropostsRepo) newestFirst(keep func(models.Micropost) bool) []models.Micropost {
	var out []models.Micropost
	for _, p := range r.s.data.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r micropostsRepo) ListByUser(_ context.Context, userID string, page models.Page) ([]models.Micropost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.newestFirst(func(p models.Micropost) bool { return p.UserID == userID }), page), nil
}

func (r micropostsRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.data.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r micropostsRepo) Feed(_ context.Context, userID string, page models.Page) ([]models.FeedItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	authors := map[string]bool{userID: true}
	for _, rel := range r.s.data.rels {
		if rel.FollowerID == userID {
			authors[rel.FollowedID] = true
		}
	}
	posts := window(r.newestFirst(func(p models.Micropost) bool { return authors[p.UserID] }), page)
	out := make([]models.FeedItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.FeedItem{Micropost: p, Author: r.s.data.users[p.UserID].Summary()})
	}
	return out, nil
}

type auditLogsRepo struct{ s *Store }

func (r auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = r.s.now()
	r.s.data.audits = append(r.s.data.audits, l)
	return nil
}
