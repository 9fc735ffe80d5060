// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"tracked/internal/domain"
)

type snapshotKey struct {
	userID int64
	day    string
}

type entryKey struct {
	trackerID, snapshotID int64
}

// DB implements an in-memory database storage. It enforces the same
// uniqueness rules and delete cascades as the PostgreSQL schema.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	profiles map[int64]domain.Profile
	sessions map[string]*domain.Session

	trackers      map[int64]domain.Tracker
	snapshots     map[int64]domain.DailySnapshot
	snapshotIndex map[snapshotKey]int64
	entries       map[int64]domain.Entry
	entryIndex    map[entryKey]int64

	userIDCounter     int64
	trackerIDCounter  int64
	snapshotIDCounter int64
	entryIDCounter    int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles:      make(map[int64]domain.Profile),
		sessions:      make(map[string]*domain.Session),
		trackers:      make(map[int64]domain.Tracker),
		snapshots:     make(map[int64]domain.DailySnapshot),
		snapshotIndex: make(map[snapshotKey]int64),
		entries:       make(map[int64]domain.Entry),
		entryIndex:    make(map[entryKey]int64),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.TrackerRepository = (*DB)(nil)
var _ domain.SnapshotRepository = (*DB)(nil)
var _ domain.EntryRepository = (*DB)(nil)
var _ domain.Transactor = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// WithinTx runs fn directly; every repository call is already atomic.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- TrackerRepository ---

// CreateTracker stores a new tracker.
func (db *DB) CreateTracker(ctx context.Context, t domain.Tracker) (*domain.Tracker, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.hasUser(t.UserID) {
		return nil, fmt.Errorf("user %d: %w", t.UserID, domain.ErrNotFound)
	}

	db.trackerIDCounter++
	t.ID = db.trackerIDCounter
	t.CreatedAt = time.Now().UTC()
	t = cloneTracker(t)
	db.trackers[t.ID] = t

	ret := cloneTracker(t)
	return &ret, nil
}

// GetTracker retrieves a tracker by ID.
func (db *DB) GetTracker(ctx context.Context, id int64) (*domain.Tracker, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.trackers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ret := cloneTracker(t)
	return &ret, nil
}

// ListTrackers lists a user's trackers ordered by display order and name.
func (db *DB) ListTrackers(ctx context.Context, userID int64, activeOnly bool) ([]domain.Tracker, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Tracker
	for _, t := range db.trackers {
		if t.UserID != userID || (activeOnly && !t.Active) {
			continue
		}
		out = append(out, cloneTracker(t))
	}
	slices.SortFunc(out, func(a, b domain.Tracker) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

// UpdateTracker overwrites a stored tracker.
func (db *DB) UpdateTracker(ctx context.Context, t domain.Tracker) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	old, ok := db.trackers[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	t.UserID = old.UserID
	t.CreatedAt = old.CreatedAt
	db.trackers[t.ID] = cloneTracker(t)
	return nil
}

// DeleteTracker removes a tracker and its entries. Snapshots are kept.
func (db *DB) DeleteTracker(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.trackers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(db.trackers, id)
	for eid, e := range db.entries {
		if e.TrackerID == id {
			db.removeEntry(eid)
		}
	}
	return nil
}

// --- SnapshotRepository ---

// GetOrCreateSnapshot returns the snapshot for (userID, day), creating it on first use.
func (db *DB) GetOrCreateSnapshot(ctx context.Context, userID int64, day string) (*domain.DailySnapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := snapshotKey{userID, day}
	if id, ok := db.snapshotIndex[key]; ok {
		s := db.snapshots[id]
		return &s, nil
	}
	if !db.hasUser(userID) {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}

	db.snapshotIDCounter++
	s := domain.DailySnapshot{ID: db.snapshotIDCounter, UserID: userID, Day: day}
	db.snapshots[s.ID] = s
	db.snapshotIndex[key] = s.ID
	return &s, nil
}

// ListSnapshots lists a user's snapshots with from <= day <= to, by day.
func (db *DB) ListSnapshots(ctx context.Context, userID int64, from, to string) ([]domain.DailySnapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.DailySnapshot
	for _, s := range db.snapshots {
		// ISO dates order lexically.
		if s.UserID == userID && s.Day >= from && s.Day <= to {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b domain.DailySnapshot) int {
		if a.Day < b.Day {
			return -1
		}
		if a.Day > b.Day {
			return 1
		}
		return 0
	})
	return out, nil
}

// --- EntryRepository ---

// GetEntry retrieves an entry by ID.
func (db *DB) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ret := cloneEntry(e)
	return &ret, nil
}

// FindEntry returns the entry for a (tracker, snapshot) pair, or nil.
func (db *DB) FindEntry(ctx context.Context, trackerID, snapshotID int64) (*domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.entryIndex[entryKey{trackerID, snapshotID}]
	if !ok {
		return nil, nil
	}
	ret := cloneEntry(db.entries[id])
	return &ret, nil
}

// CreateEntry stores an empty entry for a (tracker, snapshot) pair.
func (db *DB) CreateEntry(ctx context.Context, trackerID, snapshotID int64) (*domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := entryKey{trackerID, snapshotID}
	if _, ok := db.entryIndex[key]; ok {
		return nil, fmt.Errorf("entry for tracker %d on snapshot %d: %w", trackerID, snapshotID, domain.ErrConflict)
	}
	if _, ok := db.trackers[trackerID]; !ok {
		return nil, fmt.Errorf("tracker %d: %w", trackerID, domain.ErrNotFound)
	}
	if _, ok := db.snapshots[snapshotID]; !ok {
		return nil, fmt.Errorf("snapshot %d: %w", snapshotID, domain.ErrNotFound)
	}

	now := time.Now().UTC()
	db.entryIDCounter++
	e := domain.Entry{
		ID:         db.entryIDCounter,
		TrackerID:  trackerID,
		SnapshotID: snapshotID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	db.entries[e.ID] = e
	db.entryIndex[key] = e.ID
	return &e, nil
}

// SaveEntry persists the value fields of an existing entry.
func (db *DB) SaveEntry(ctx context.Context, e *domain.Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.entries[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Value = cloneValue(e.Value)
	stored.UpdatedAt = time.Now().UTC()
	db.entries[e.ID] = stored
	e.UpdatedAt = stored.UpdatedAt
	return nil
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (db *DB) DeleteEntry(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.removeEntry(id)
	return nil
}

// ListSnapshotEntries lists a snapshot's entries restricted to trackerIDs.
func (db *DB) ListSnapshotEntries(ctx context.Context, snapshotID int64, trackerIDs []int64) ([]domain.Entry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Entry
	for _, tid := range trackerIDs {
		if id, ok := db.entryIndex[entryKey{tid, snapshotID}]; ok {
			out = append(out, cloneEntry(db.entries[id]))
		}
	}
	return out, nil
}

func (db *DB) removeEntry(id int64) {
	e, ok := db.entries[id]
	if !ok {
		return
	}
	delete(db.entries, id)
	delete(db.entryIndex, entryKey{e.TrackerID, e.SnapshotID})
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrConflict)
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

func (db *DB) hasUser(id int64) bool {
	for _, u := range db.users {
		if u.ID == id {
			return true
		}
	}
	return false
}

// --- ProfileRepository ---

// CreateProfile stores the profile of a user; a user has at most one.
func (db *DB) CreateProfile(ctx context.Context, p domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.hasUser(p.UserID) {
		return fmt.Errorf("user %d: %w", p.UserID, domain.ErrNotFound)
	}
	if _, ok := db.profiles[p.UserID]; ok {
		return fmt.Errorf("profile for user %d: %w", p.UserID, domain.ErrConflict)
	}
	p.CreatedAt = time.Now().UTC()
	db.profiles[p.UserID] = p
	return nil
}

// GetProfile returns a user's profile, or nil if none exists.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

func cloneTracker(t domain.Tracker) domain.Tracker {
	t.Unit = clonePtr(t.Unit)
	t.MinValue = clonePtr(t.MinValue)
	t.MaxValue = clonePtr(t.MaxValue)
	return t
}

func cloneEntry(e domain.Entry) domain.Entry {
	e.Value = cloneValue(e.Value)
	return e
}

func cloneValue(v domain.Value) domain.Value {
	return domain.Value{
		Binary:   clonePtr(v.Binary),
		Number:   clonePtr(v.Number),
		Rating:   clonePtr(v.Rating),
		Duration: clonePtr(v.Duration),
		Time:     clonePtr(v.Time),
		Text:     clonePtr(v.Text),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
