package services

import (
	"context"
	"time"

	"github.com/ichinomiya1038/sample-app/internal/metrics"
	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
)

type FeedService struct{ store repo.Store }

func NewFeedService(store repo.Store) *FeedService { return &FeedService{store: store} }

// Feed lists the microposts of userID and of everyone userID follows,
// newest first.
func (s *FeedService) Feed(ctx context.Context, userID string, page models.Page) ([]models.FeedItem, error) {
	start := time.Now()
	defer func() { metrics.FeedLatency.Observe(time.Since(start).Seconds()) }()
	return s.store.Microposts().Feed(ctx, userID, page)
}
