package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracked/internal/domain"
)

func seedUser(t *testing.T, db *DB, name string) *domain.User {
	t.Helper()
	u, err := db.Create(context.Background(), name, "")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func TestTrackerRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	u := seedUser(t, db, "alice")

	unit := "kg"
	created, err := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Weight", Type: domain.TypeNumber, Unit: &unit, Active: true, DisplayOrder: 1})
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if _, err := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Gym", Type: domain.TypeBinary, Active: false}); err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}

	all, _ := db.ListTrackers(ctx, u.ID, false)
	if len(all) != 2 || all[0].Name != "Gym" {
		t.Fatalf("unexpected list %+v", all)
	}
	active, _ := db.ListTrackers(ctx, u.ID, true)
	if len(active) != 1 || active[0].Name != "Weight" {
		t.Fatalf("unexpected active list %+v", active)
	}

	// Returned copies must not alias storage.
	*created.Unit = "lb"
	got, _ := db.GetTracker(ctx, created.ID)
	if *got.Unit != "kg" {
		t.Errorf("stored unit mutated through returned pointer")
	}

	got.Name = "Body Weight"
	got.UserID = 999
	if err := db.UpdateTracker(ctx, *got); err != nil {
		t.Fatalf("UpdateTracker: %v", err)
	}
	got, _ = db.GetTracker(ctx, created.ID)
	if got.Name != "Body Weight" || got.UserID != u.ID {
		t.Errorf("unexpected tracker after update: %+v", got)
	}

	if _, err := db.GetTracker(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.CreateTracker(ctx, domain.Tracker{UserID: 999, Name: "X", Type: domain.TypeText}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSnapshotRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	s1, err := db.GetOrCreateSnapshot(ctx, alice.ID, "2026-02-01")
	if err != nil {
		t.Fatalf("GetOrCreateSnapshot: %v", err)
	}
	s2, _ := db.GetOrCreateSnapshot(ctx, alice.ID, "2026-02-01")
	if s1.ID != s2.ID {
		t.Errorf("expected same snapshot, got %d and %d", s1.ID, s2.ID)
	}
	s3, _ := db.GetOrCreateSnapshot(ctx, bob.ID, "2026-02-01")
	if s3.ID == s1.ID {
		t.Error("users must not share snapshots")
	}

	_, _ = db.GetOrCreateSnapshot(ctx, alice.ID, "2026-01-31")
	_, _ = db.GetOrCreateSnapshot(ctx, alice.ID, "2026-03-01")

	list, err := db.ListSnapshots(ctx, alice.ID, "2026-01-01", "2026-02-28")
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 2 || list[0].Day != "2026-01-31" || list[1].Day != "2026-02-01" {
		t.Errorf("unexpected snapshots %+v", list)
	}
}

func TestEntryRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	u := seedUser(t, db, "alice")
	tr, _ := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Mood", Type: domain.TypeRating, Active: true})
	other, _ := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Gym", Type: domain.TypeBinary, Active: true})
	snap, _ := db.GetOrCreateSnapshot(ctx, u.ID, "2026-02-01")

	e, err := db.CreateEntry(ctx, tr.ID, snap.ID)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := db.CreateEntry(ctx, tr.ID, snap.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	rating := 4
	e.Rating = &rating
	if err := db.SaveEntry(ctx, e); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	rating = 1

	found, err := db.FindEntry(ctx, tr.ID, snap.ID)
	if err != nil || found == nil {
		t.Fatalf("FindEntry: %v %v", found, err)
	}
	if *found.Rating != 4 {
		t.Errorf("rating = %d; want 4", *found.Rating)
	}

	missing, err := db.FindEntry(ctx, other.ID, snap.ID)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing entry; got %v %v", missing, err)
	}

	_, _ = db.CreateEntry(ctx, other.ID, snap.ID)
	list, _ := db.ListSnapshotEntries(ctx, snap.ID, []int64{tr.ID})
	if len(list) != 1 || list[0].TrackerID != tr.ID {
		t.Errorf("expected only the requested tracker's entry, got %+v", list)
	}

	if err := db.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := db.GetEntry(ctx, e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	// The pair is free again.
	if _, err := db.CreateEntry(ctx, tr.ID, snap.ID); err != nil {
		t.Errorf("CreateEntry after delete: %v", err)
	}
}

func TestDeleteTrackerCascadesEntriesOnly(t *testing.T) {
	db := New()
	ctx := context.Background()
	u := seedUser(t, db, "alice")
	tr, _ := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Gym", Type: domain.TypeBinary, Active: true})
	keep, _ := db.CreateTracker(ctx, domain.Tracker{UserID: u.ID, Name: "Read", Type: domain.TypeBinary, Active: true})
	snap, _ := db.GetOrCreateSnapshot(ctx, u.ID, "2026-02-02")
	gone, _ := db.CreateEntry(ctx, tr.ID, snap.ID)
	kept, _ := db.CreateEntry(ctx, keep.ID, snap.ID)

	if err := db.DeleteTracker(ctx, tr.ID); err != nil {
		t.Fatalf("DeleteTracker: %v", err)
	}
	if _, err := db.GetEntry(ctx, gone.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("entry of deleted tracker survived")
	}
	if _, err := db.GetEntry(ctx, kept.ID); err != nil {
		t.Errorf("unrelated entry removed: %v", err)
	}
	list, _ := db.ListSnapshots(ctx, u.ID, "2026-02-02", "2026-02-02")
	if len(list) != 1 {
		t.Errorf("snapshot removed with tracker")
	}
}

func TestUserAndProfileRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := seedUser(t, db, "alice")
	if _, err := db.Create(ctx, "alice", ""); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}
	if n, _ := db.Count(ctx); n != 1 {
		t.Errorf("count = %d; want 1", n)
	}

	if err := db.CreateProfile(ctx, domain.Profile{UserID: u.ID, ExternalID: "sub-1"}); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if err := db.CreateProfile(ctx, domain.Profile{UserID: u.ID}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for second profile, got %v", err)
	}
	p, _ := db.GetProfile(ctx, u.ID)
	if p == nil || p.ExternalID != "sub-1" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, 1, "live", "ua", "127.0.0.1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "stale", "ua", "127.0.0.1", time.Now().Add(-time.Hour))

	s, _ := repo.GetByToken(ctx, "live")
	if s == nil || s.UserAgent != "ua" {
		t.Fatalf("unexpected session %+v", s)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "stale"); s != nil {
		t.Error("expired session still present")
	}

	_ = repo.Delete(ctx, "live")
	if s, _ := repo.GetByToken(ctx, "live"); s != nil {
		t.Error("deleted session still present")
	}
}
