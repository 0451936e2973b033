package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/models"
	"github.com/ichinomiya1038/sample-app/internal/repository/memory"
)

type fixture struct {
	store *memory.Store
	users *UserService
	rels  *RelationshipService
	posts *MicropostService
	feed  *FeedService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.NewStore()
	audit := NewAuditor(st.AuditLogs(), nil)
	return fixture{
		store: st,
		users: NewUserService(st, auth.NewHasher(bcrypt.MinCost), audit),
		rels:  NewRelationshipService(st, audit),
		posts: NewMicropostService(st),
		feed:  NewFeedService(st),
	}
}

func (f fixture) register(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "foobar", PasswordConfirmation: "foobar"})
	require.NoError(t, err)
	return u
}

func (f fixture) post(t *testing.T, u models.User, content string) models.Micropost {
	t.Helper()
	m, err := f.posts.Create(context.Background(), u.ID, MicropostInput{Content: content})
	require.NoError(t, err)
	return m
}
