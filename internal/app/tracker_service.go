package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"tracked/internal/domain"
)

// TrackerService manages a user's tracker definitions.
type TrackerService struct {
	repo  domain.TrackerRepository
	cache *MonthCache
	limit int
}

// NewTrackerService creates a TrackerService. A limit of 0 allows any number
// of active trackers.
func NewTrackerService(repo domain.TrackerRepository, cache *MonthCache, limit int) *TrackerService {
	return &TrackerService{repo: repo, cache: cache, limit: limit}
}

// List returns all of the user's trackers, active ones first, then by
// display order and name.
func (s *TrackerService) List(ctx context.Context, userID int64) ([]domain.Tracker, error) {
	trackers, err := s.repo.ListTrackers(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(trackers, func(a, b domain.Tracker) int {
		if a.Active != b.Active {
			if a.Active {
				return -1
			}
			return 1
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return strings.Compare(a.Name, b.Name)
	})
	return trackers, nil
}

// Create validates and stores a new active tracker.
func (s *TrackerService) Create(ctx context.Context, userID int64, in domain.TrackerPatch) (*domain.Tracker, error) {
	if err := s.checkLimit(ctx, userID); err != nil {
		return nil, err
	}
	t := domain.Tracker{UserID: userID, Active: true}
	in.Apply(&t)
	if err := t.Normalize(); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateTracker(ctx, t)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(userID)
	return created, nil
}

// Update applies a partial change to one of the user's trackers.
func (s *TrackerService) Update(ctx context.Context, userID, id int64, patch domain.TrackerPatch) (*domain.Tracker, error) {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Active != nil && *patch.Active && !t.Active {
		if err := s.checkLimit(ctx, userID); err != nil {
			return nil, err
		}
	}
	patch.Apply(t)
	if err := t.Normalize(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTracker(ctx, *t); err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(userID)
	return t, nil
}

// Deactivate hides a tracker from the grid while keeping its entries.
func (s *TrackerService) Deactivate(ctx context.Context, userID, id int64) (*domain.Tracker, error) {
	inactive := false
	return s.Update(ctx, userID, id, domain.TrackerPatch{Active: &inactive})
}

// Delete removes a tracker together with all of its entries.
func (s *TrackerService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTracker(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateUser(userID)
	return nil
}

// Suggested returns the quick-add catalog.
func (s *TrackerService) Suggested() []domain.SuggestedTracker {
	return domain.SuggestedTrackers()
}

// QuickAdd creates a tracker from the catalog template named by slug.
func (s *TrackerService) QuickAdd(ctx context.Context, userID int64, slug string) (*domain.Tracker, error) {
	tmpl, ok := domain.LookupSuggested(slug)
	if !ok {
		return nil, fmt.Errorf("suggested tracker %q: %w", slug, domain.ErrNotFound)
	}
	if err := s.checkLimit(ctx, userID); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListTrackers(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if strings.EqualFold(t.Name, tmpl.Name) {
			return nil, fmt.Errorf("tracker %q already exists: %w", tmpl.Name, domain.ErrConflict)
		}
	}
	created, err := s.repo.CreateTracker(ctx, tmpl.Tracker(userID, len(existing)))
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(userID)
	return created, nil
}

func (s *TrackerService) owned(ctx context.Context, userID, id int64) (*domain.Tracker, error) {
	t, err := s.repo.GetTracker(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tracker %d: %w", id, err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("tracker %d: %w", id, domain.ErrUnauthorized)
	}
	return t, nil
}

func (s *TrackerService) checkLimit(ctx context.Context, userID int64) error {
	if s.limit <= 0 {
		return nil
	}
	active, err := s.repo.ListTrackers(ctx, userID, true)
	if err != nil {
		return err
	}
	if len(active) >= s.limit {
		return fmt.Errorf("%d active trackers: %w", len(active), domain.ErrTrackerLimit)
	}
	return nil
}
