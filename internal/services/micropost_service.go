package services

import (
	"context"
	"strings"

	"github.com/ichinomiya1038/sample-app/internal/api/validate"
	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

type MicropostService struct{ store repo.Store }

func NewMicropostService(store repo.Store) *MicropostService { return &MicropostService{store: store} }

type MicropostInput struct {
	Content  string `json:"content" validate:"required,max=140"`
	ImageURL string `json:"image_url" validate:"omitempty,http_url"`
}

func (s *MicropostService) Create(ctx context.Context, userID string, in MicropostInput) (models.Micropost, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validate.Struct(in); err != nil {
		return models.Micropost{}, err
	}
	m := models.Micropost{UserID: userID, Content: in.Content}
	if in.ImageURL != "" {
		m.ImageURL = &in.ImageURL
	}
	return s.store.Microposts().Create(ctx, m)
}

// Delete removes postID if actorID owns it.
func (s *MicropostService) Delete(ctx context.Context, actorID, postID string) error {
	m, err := s.store.Microposts().GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if m.UserID != actorID {
		return ErrForbidden
	}
	return s.store.Microposts().Delete(ctx, postID)
}

func (s *MicropostService) ListByUser(ctx context.Context, userID string, page models.Page) ([]models.Micropost, error) {
	return s.store.Microposts().ListByUser(ctx, userID, page)
}

func (s *MicropostService) CountByUser(ctx context.Context, userID string) (int, error) {
	return s.store.Microposts().CountByUser(ctx, userID)
}
