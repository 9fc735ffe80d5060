package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tracked/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type snapshotRow struct {
	ID     int64     `db:"id"`
	UserID int64     `db:"user_id"`
	Day    time.Time `db:"day"`
}

func (r snapshotRow) toDomain() domain.DailySnapshot {
	return domain.DailySnapshot{ID: r.ID, UserID: r.UserID, Day: r.Day.Format(domain.DayLayout)}
}

// GetOrCreateSnapshot returns the snapshot for (userID, day). Concurrent
// first writes are resolved by the (user_id, day) unique constraint.
func (d *DB) GetOrCreateSnapshot(ctx context.Context, userID int64, day string) (*domain.DailySnapshot, error) {
	ext := d.ext(ctx)
	if _, err := ext.ExecContext(ctx,
		"INSERT INTO daily_snapshots (user_id, day) VALUES ($1, $2) ON CONFLICT (user_id, day) DO NOTHING",
		userID, day,
	); err != nil {
		return nil, mapError(err)
	}

	var row snapshotRow
	if err := ext.GetContext(ctx, &row,
		"SELECT id, user_id, day FROM daily_snapshots WHERE user_id = $1 AND day = $2",
		userID, day,
	); err != nil {
		return nil, mapError(err)
	}
	s := row.toDomain()
	return &s, nil
}

// ListSnapshots lists a user's snapshots with from <= day <= to, by day.
func (d *DB) ListSnapshots(ctx context.Context, userID int64, from, to string) ([]domain.DailySnapshot, error) {
	query, args, err := psql.Select("id", "user_id", "day").
		From("daily_snapshots").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"day": from}).
		Where(squirrel.LtOrEq{"day": to}).
		OrderBy("day").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []snapshotRow
	if err := d.ext(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.DailySnapshot, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

var entryColumns = []string{"id", "tracker_id", "daily_snapshot_id", "binary_value", "number_value", "rating_value", "duration_minutes", "time_value", "text_value", "created_at", "updated_at"}

type entryRow struct {
	ID              int64          `db:"id"`
	TrackerID       int64          `db:"tracker_id"`
	SnapshotID      int64          `db:"daily_snapshot_id"`
	BinaryValue     sql.NullBool   `db:"binary_value"`
	NumberValue     sql.NullString `db:"number_value"`
	RatingValue     sql.NullInt64  `db:"rating_value"`
	DurationMinutes sql.NullInt64  `db:"duration_minutes"`
	TimeValue       sql.NullString `db:"time_value"`
	TextValue       sql.NullString `db:"text_value"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// toEntry converts a row; stored values that no longer parse are logged
// and left null.
func (d *DB) toEntry(r entryRow) domain.Entry {
	e := domain.Entry{
		ID:         r.ID,
		TrackerID:  r.TrackerID,
		SnapshotID: r.SnapshotID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.BinaryValue.Valid {
		b := r.BinaryValue.Bool
		e.Binary = &b
	}
	if r.NumberValue.Valid {
		if n, err := decimal.NewFromString(r.NumberValue.String); err == nil {
			e.Number = &n
		} else {
			d.log.WithFields(log.Fields{"entry_id": r.ID, "value": r.NumberValue.String}).Warn("skipping unparseable number value")
		}
	}
	if r.RatingValue.Valid {
		v := int(r.RatingValue.Int64)
		e.Rating = &v
	}
	if r.DurationMinutes.Valid {
		v := int(r.DurationMinutes.Int64)
		e.Duration = &v
	}
	if r.TimeValue.Valid {
		if t, err := domain.ParseTimeOfDay(r.TimeValue.String); err == nil {
			e.Time = &t
		} else {
			d.log.WithFields(log.Fields{"entry_id": r.ID, "value": r.TimeValue.String}).Warn("skipping unparseable time value")
		}
	}
	if r.TextValue.Valid {
		s := r.TextValue.String
		e.Text = &s
	}
	return e
}

func (d *DB) getEntry(ctx context.Context, where squirrel.Eq) (*domain.Entry, error) {
	query, args, err := psql.Select(entryColumns...).From("entries").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var row entryRow
	if err := d.ext(ctx).GetContext(ctx, &row, query, args...); err != nil {
		return nil, err
	}
	e := d.toEntry(row)
	return &e, nil
}

// GetEntry retrieves an entry by ID.
func (d *DB) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	e, err := d.getEntry(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// FindEntry returns the entry for a (tracker, snapshot) pair, or nil.
func (d *DB) FindEntry(ctx context.Context, trackerID, snapshotID int64) (*domain.Entry, error) {
	e, err := d.getEntry(ctx, squirrel.Eq{"tracker_id": trackerID, "daily_snapshot_id": snapshotID})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntry inserts an empty entry for a (tracker, snapshot) pair.
func (d *DB) CreateEntry(ctx context.Context, trackerID, snapshotID int64) (*domain.Entry, error) {
	now := time.Now().UTC()
	var row entryRow
	err := d.ext(ctx).GetContext(ctx, &row,
		"INSERT INTO entries (tracker_id, daily_snapshot_id, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING "+strings.Join(entryColumns, ", "),
		trackerID, snapshotID, now, now,
	)
	if err != nil {
		return nil, mapError(err)
	}
	e := d.toEntry(row)
	return &e, nil
}

// SaveEntry writes all six value fields of an existing entry.
func (d *DB) SaveEntry(ctx context.Context, e *domain.Entry) error {
	now := time.Now().UTC()
	res, err := d.ext(ctx).ExecContext(ctx,
		`UPDATE entries SET binary_value = $1, number_value = $2, rating_value = $3, duration_minutes = $4,
		time_value = $5, text_value = $6, updated_at = $7 WHERE id = $8`,
		e.Binary, e.Number, e.Rating, e.Duration, e.Time, e.Text, now, e.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (d *DB) DeleteEntry(ctx context.Context, id int64) error {
	_, err := d.ext(ctx).ExecContext(ctx, "DELETE FROM entries WHERE id = $1", id)
	return err
}

// ListSnapshotEntries lists a snapshot's entries restricted to trackerIDs.
func (d *DB) ListSnapshotEntries(ctx context.Context, snapshotID int64, trackerIDs []int64) ([]domain.Entry, error) {
	if len(trackerIDs) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select(entryColumns...).
		From("entries").
		Where(squirrel.Eq{"daily_snapshot_id": snapshotID, "tracker_id": trackerIDs}).
		OrderBy("tracker_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []entryRow
	if err := d.ext(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Entry, len(rows))
	for i, r := range rows {
		out[i] = d.toEntry(r)
	}
	return out, nil
}
