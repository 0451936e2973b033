package services

import (
	"context"
	"errors"

	"github.com/ichinomiya1038/sample-app/internal/metrics"
	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

// RelationshipService manages the directed follow graph.
type RelationshipService struct {
	store repo.Store
	audit *Auditor
}

func NewRelationshipService(store repo.Store, audit *Auditor) *RelationshipService {
	return &RelationshipService{store: store, audit: audit}
}

type Stats struct {
	Following int `json:"following"`
	Followers int `json:"followers"`
}

// Follow makes actorID follow targetID. Following oneself is a no-op and
// following twice leaves a single edge.
func (s *RelationshipService) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return nil
	}
	if _, err := s.store.Users().GetByID(ctx, targetID); err != nil {
		return err
	}
	created, err := s.store.Relationships().Create(ctx, actorID, targetID)
	if errors.Is(err, repo.ErrConflict) {
		return nil
	}
	if err != nil || !created {
		return err
	}
	metrics.GraphChanges.WithLabelValues("follow").Inc()
	s.audit.Record(models.AuditEntityRelationship, actorID, "follow", map[string]any{"followed_id": targetID})
	return nil
}

// Unfollow removes the edge if present.
func (s *RelationshipService) Unfollow(ctx context.Context, actorID, targetID string) error {
	removed, err := s.store.Relationships().Delete(ctx, actorID, targetID)
	if err != nil || !removed {
		return err
	}
	metrics.GraphChanges.WithLabelValues("unfollow").Inc()
	s.audit.Record(models.AuditEntityRelationship, actorID, "unfollow", map[string]any{"followed_id": targetID})
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, actorID, candidateID string) (bool, error) {
	return s.store.Relationships().Exists(ctx, actorID, candidateID)
}

func (s *RelationshipService) Following(ctx context.Context, userID string, page models.Page) ([]models.User, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Relationships().Following(ctx, userID, page)
}

func (s *RelationshipService) Followers(ctx context.Context, userID string, page models.Page) ([]models.User, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Relationships().Followers(ctx, userID, page)
}

func (s *RelationshipService) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	var err error
	if st.Following, err = s.store.Relationships().CountFollowing(ctx, userID); err != nil {
		return Stats{}, err
	}
	if st.Followers, err = s.store.Relationships().CountFollowers(ctx, userID); err != nil {
		return Stats{}, err
	}
	return st, nil
}
