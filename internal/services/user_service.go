package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/ichinomiya1038/sample-app/internal/api/validate"
	"github.com/ichinomiya1038/sample-app/internal/auth"
	"github.com/ichinomiya1038/sample-app/internal/metrics"
	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

type UserService struct {
	store  repo.Store
	hasher *auth.Hasher
	audit  *Auditor
}

func NewUserService(store repo.Store, hasher *auth.Hasher, audit *Auditor) *UserService {
	return &UserService{store: store, hasher: hasher, audit: audit}
}

type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,max=255,account_email"`
	Password             string `json:"password" validate:"required,min=6,max_bytes=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"omitempty,eqfield=Password"`
}

// UpdateInput leaves the password unchanged when Password is empty.
type UpdateInput struct {
	Name                 string `json:"name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,max=255,account_email"`
	Password             string `json:"password" validate:"omitempty,min=6,max_bytes=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"omitempty,eqfield=Password"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)

	errs, err := asErrs(validate.Struct(in))
	if err != nil {
		return models.User{}, err
	}
	if errs, err = s.checkEmailFree(ctx, in.Email, "", errs); err != nil {
		return models.User{}, err
	}
	if len(errs) > 0 {
		return models.User{}, errs
	}

	digest, err := s.hasher.Digest(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.store.Users().Create(ctx, models.User{Name: in.Name, Email: in.Email, PasswordDigest: digest})
	if errors.Is(err, repo.ErrConflict) {
		return models.User{}, validate.Errs{emailTaken}
	}
	if err != nil {
		return models.User{}, err
	}

	metrics.UsersRegistered.Inc()
	s.audit.Record(models.AuditEntityUser, u.ID, "created", map[string]any{"email": u.Email})
	return u, nil
}

// checkEmailFree adds the uniqueness error unless the email already failed
// another rule.
func (s *UserService) checkEmailFree(ctx context.Context, email, selfID string, errs validate.Errs) (validate.Errs, error) {
	if errs.Has("email") {
		return errs, nil
	}
	other, err := s.store.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errs, nil
	case err != nil:
		return nil, err
	}
	if other.ID != selfID {
		errs = append(errs, emailTaken)
	}
	return errs, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !s.hasher.Verify(u.PasswordDigest, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page models.Page) ([]models.User, error) {
	return s.store.Users().List(ctx, page)
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.store.Users().Count(ctx)
}

// Update edits the profile of id. Only the user itself may do so.
func (s *UserService) Update(ctx context.Context, actorID, id string, in UpdateInput) (models.User, error) {
	if actorID != id {
		return models.User{}, ErrForbidden
	}
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	errs, err := asErrs(validate.Struct(in))
	if err != nil {
		return models.User{}, err
	}
	if errs, err = s.checkEmailFree(ctx, in.Email, u.ID, errs); err != nil {
		return models.User{}, err
	}
	if len(errs) > 0 {
		return models.User{}, errs
	}

	u.Name, u.Email = in.Name, in.Email
	if in.Password != "" {
		if u.PasswordDigest, err = s.hasher.Digest(in.Password); err != nil {
			return models.User{}, err
		}
	}
	u, err = s.store.Users().Update(ctx, u)
	if errors.Is(err, repo.ErrConflict) {
		return models.User{}, validate.Errs{emailTaken}
	}
	return u, err
}

// Delete removes id together with its microposts and every relationship
// touching it. The actor must be an admin.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.store.Users().GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Admin {
		return ErrForbidden
	}

	err = s.store.WithTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Users().GetByID(ctx, id); err != nil {
			return err
		}
		if err := tx.Microposts().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Relationships().DeleteAllFor(ctx, id); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.audit.Record(models.AuditEntityUser, id, "deleted", map[string]any{"by": actorID})
	return nil
}

// Remember stores the digest of a fresh token as u's remember digest and
// returns the token.
func (s *UserService) Remember(ctx context.Context, u *models.User) (string, error) {
	token, err := auth.NewToken()
	if err != nil {
		return "", err
	}
	digest, err := s.hasher.Digest(token)
	if err != nil {
		return "", err
	}
	if err := s.store.Users().SetRememberDigest(ctx, u.ID, &digest); err != nil {
		return "", err
	}
	u.RememberDigest = &digest
	return token, nil
}

// Authenticated reports whether token matches u's remember digest.
func (s *UserService) Authenticated(u models.User, token string) bool {
	if u.RememberDigest == nil {
		return false
	}
	return s.hasher.Verify(*u.RememberDigest, token)
}

func (s *UserService) Forget(ctx context.Context, u *models.User) error {
	if err := s.store.Users().SetRememberDigest(ctx, u.ID, nil); err != nil {
		return err
	}
	u.RememberDigest = nil
	return nil
}

// SessionToken returns u's remember digest, remembering u first if needed.
// Sessions holding a stale value are rejected by SessionValid, so Forget
// logs the user out everywhere.
func (s *UserService) SessionToken(ctx context.Context, u *models.User) (string, error) {
	if u.RememberDigest != nil {
		return *u.RememberDigest, nil
	}
	if _, err := s.Remember(ctx, u); err != nil {
		return "", err
	}
	return *u.RememberDigest, nil
}

func (s *UserService) SessionValid(u models.User, sessionToken string) bool {
	if u.RememberDigest == nil || sessionToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.RememberDigest), []byte(sessionToken)) == 1
}
