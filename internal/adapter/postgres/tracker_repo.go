package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"tracked/internal/domain"

	"github.com/Masterminds/squirrel"
)

var trackerColumns = []string{"id", "user_id", "name", "tracker_type", "unit", "display_order", "is_active", "min_value", "max_value", "created_at"}

type trackerRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	Name         string         `db:"name"`
	TrackerType  string         `db:"tracker_type"`
	Unit         sql.NullString `db:"unit"`
	DisplayOrder int            `db:"display_order"`
	IsActive     bool           `db:"is_active"`
	MinValue     sql.NullInt64  `db:"min_value"`
	MaxValue     sql.NullInt64  `db:"max_value"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r trackerRow) toDomain() domain.Tracker {
	t := domain.Tracker{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Type:         domain.TrackerType(r.TrackerType),
		DisplayOrder: r.DisplayOrder,
		Active:       r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
	if r.Unit.Valid {
		u := r.Unit.String
		t.Unit = &u
	}
	if r.MinValue.Valid {
		v := int(r.MinValue.Int64)
		t.MinValue = &v
	}
	if r.MaxValue.Valid {
		v := int(r.MaxValue.Int64)
		t.MaxValue = &v
	}
	return t
}

// CreateTracker stores a new tracker.
func (d *DB) CreateTracker(ctx context.Context, t domain.Tracker) (*domain.Tracker, error) {
	query, args, err := psql.Insert("trackers").
		Columns("user_id", "name", "tracker_type", "unit", "display_order", "is_active", "min_value", "max_value", "created_at").
		Values(t.UserID, t.Name, string(t.Type), t.Unit, t.DisplayOrder, t.Active, t.MinValue, t.MaxValue, time.Now().UTC()).
		Suffix("RETURNING " + strings.Join(trackerColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row trackerRow
	if err := d.ext(ctx).GetContext(ctx, &row, query, args...); err != nil {
		return nil, mapError(err)
	}
	created := row.toDomain()
	return &created, nil
}

// GetTracker retrieves a tracker by ID.
func (d *DB) GetTracker(ctx context.Context, id int64) (*domain.Tracker, error) {
	query, args, err := psql.Select(trackerColumns...).From("trackers").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var row trackerRow
	if err := d.ext(ctx).GetContext(ctx, &row, query, args...); err != nil {
		return nil, mapError(err)
	}
	t := row.toDomain()
	return &t, nil
}

// ListTrackers lists a user's trackers ordered by display order and name.
func (d *DB) ListTrackers(ctx context.Context, userID int64, activeOnly bool) ([]domain.Tracker, error) {
	q := psql.Select(trackerColumns...).From("trackers").Where(squirrel.Eq{"user_id": userID})
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	query, args, err := q.OrderBy("display_order", "name", "id").ToSql()
	if err != nil {
		return nil, err
	}

	var rows []trackerRow
	if err := d.ext(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Tracker, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// UpdateTracker overwrites the mutable fields of a tracker.
func (d *DB) UpdateTracker(ctx context.Context, t domain.Tracker) error {
	query, args, err := psql.Update("trackers").
		SetMap(map[string]any{
			"name":          t.Name,
			"tracker_type":  string(t.Type),
			"unit":          t.Unit,
			"display_order": t.DisplayOrder,
			"is_active":     t.Active,
			"min_value":     t.MinValue,
			"max_value":     t.MaxValue,
		}).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := d.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

// DeleteTracker removes a tracker; its entries go with it via ON DELETE CASCADE.
func (d *DB) DeleteTracker(ctx context.Context, id int64) error {
	res, err := d.ext(ctx).ExecContext(ctx, "DELETE FROM trackers WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
