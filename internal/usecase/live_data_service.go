package usecase

import (
	"context"
	"fmt"

	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

const (
	defaultLiveFixturesLimit = 50
	maxLiveFixturesLimit     = 200
)

// LiveDataService serves the stored snapshots to read-only consumers.
type LiveDataService struct {
	fixtures livefixture.Repository
	odds     liveodds.Repository
	logger   *logging.Logger
}

func NewLiveDataService(fixtures livefixture.Repository, odds liveodds.Repository, logger *logging.Logger) *LiveDataService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveDataService{fixtures: fixtures, odds: odds, logger: logger.Named("live_data")}
}

func (s *LiveDataService) ListLiveFixtures(ctx context.Context, limit int) ([]livefixture.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveDataService.ListLiveFixtures")
	defer span.End()

	switch {
	case limit <= 0:
		limit = defaultLiveFixturesLimit
	case limit > maxLiveFixturesLimit:
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidInput, maxLiveFixturesLimit)
	}

	items, err := s.fixtures.ListLive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list live fixtures: %w", err)
	}
	return items, nil
}

func (s *LiveDataService) GetLiveOdds(ctx context.Context, fixtureID int64) (liveodds.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveDataService.GetLiveOdds")
	defer span.End()

	if fixtureID <= 0 {
		return liveodds.Snapshot{}, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}

	item, exists, err := s.odds.GetByFixture(ctx, fixtureID)
	if err != nil {
		return liveodds.Snapshot{}, fmt.Errorf("get live odds fixture=%d: %w", fixtureID, err)
	}
	if !exists {
		return liveodds.Snapshot{}, fmt.Errorf("%w: no live odds for fixture %d", ErrNotFound, fixtureID)
	}
	return item, nil
}
