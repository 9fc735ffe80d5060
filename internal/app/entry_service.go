package app

import (
	"context"
	"errors"
	"fmt"

	"tracked/internal/domain"
)

// UpsertResult reports the outcome of UpsertEntry.
type UpsertResult struct {
	EntryID int64
	Created bool
	Deleted bool
}

// EntryService records, updates and removes grid cell values.
type EntryService struct {
	trackers  domain.TrackerRepository
	snapshots domain.SnapshotRepository
	entries   domain.EntryRepository
	tx        domain.Transactor
	cache     *MonthCache
}

// NewEntryService creates an EntryService. cache may be nil.
func NewEntryService(trackers domain.TrackerRepository, snapshots domain.SnapshotRepository, entries domain.EntryRepository, tx domain.Transactor, cache *MonthCache) *EntryService {
	return &EntryService{
		trackers:  trackers,
		snapshots: snapshots,
		entries:   entries,
		tx:        tx,
		cache:     cache,
	}
}

// GetOrCreateSnapshot returns the user's snapshot for day, creating it if needed.
func (s *EntryService) GetOrCreateSnapshot(ctx context.Context, userID int64, day string) (*domain.DailySnapshot, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return nil, err
	}
	return s.snapshots.GetOrCreateSnapshot(ctx, userID, day)
}

// ListSnapshots returns the user's snapshots between from and to inclusive.
func (s *EntryService) ListSnapshots(ctx context.Context, userID int64, from, to string) ([]domain.DailySnapshot, error) {
	start, err := domain.ParseDay(from)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDay(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", domain.ErrInvalidInput)
	}
	return s.snapshots.ListSnapshots(ctx, userID, from, to)
}

// UpsertEntry writes the value for one (tracker, day) cell, or deletes it when
// p.Delete is set. The tracker must belong to userID.
func (s *EntryService) UpsertEntry(ctx context.Context, userID, trackerID int64, day string, p domain.EntryPayload) (UpsertResult, error) {
	tracker, err := s.trackers.GetTracker(ctx, trackerID)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("tracker %d: %w", trackerID, err)
	}
	if tracker.UserID != userID {
		return UpsertResult{}, fmt.Errorf("tracker %d: %w", trackerID, domain.ErrNotFound)
	}

	date, err := domain.ParseDay(day)
	if err != nil {
		return UpsertResult{}, err
	}

	var res UpsertResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		snap, err := s.snapshots.GetOrCreateSnapshot(ctx, userID, day)
		if err != nil {
			return err
		}

		entry, err := s.entries.FindEntry(ctx, tracker.ID, snap.ID)
		if err != nil {
			return err
		}

		if p.Delete {
			if entry != nil {
				if err := s.entries.DeleteEntry(ctx, entry.ID); err != nil {
					return err
				}
			}
			res = UpsertResult{Deleted: true}
			return nil
		}

		created := false
		if entry == nil {
			if entry, err = s.entries.CreateEntry(ctx, tracker.ID, snap.ID); err != nil {
				return err
			}
			created = true
		}

		entry.Clear()
		if err := entry.Set(tracker, p); err != nil {
			if created {
				if delErr := s.entries.DeleteEntry(ctx, entry.ID); delErr != nil {
					return errors.Join(err, delErr)
				}
			}
			return err
		}

		if err := s.entries.SaveEntry(ctx, entry); err != nil {
			return err
		}
		res = UpsertResult{EntryID: entry.ID, Created: created}
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}

	s.cache.Invalidate(userID, date.Year(), int(date.Month()))
	return res, nil
}

// DeleteEntry removes an entry owned by userID.
func (s *EntryService) DeleteEntry(ctx context.Context, userID, entryID int64) error {
	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("entry %d: %w", entryID, err)
	}
	tracker, err := s.trackers.GetTracker(ctx, entry.TrackerID)
	if err != nil {
		return fmt.Errorf("entry %d: %w", entryID, err)
	}
	if tracker.UserID != userID {
		return fmt.Errorf("entry %d: %w", entryID, domain.ErrUnauthorized)
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		return err
	}
	s.cache.InvalidateUser(userID)
	return nil
}
