package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/crucial707/searchsync/internal/models"
)

// ErrDuplicate is returned when a saved search name is already taken in an app.
var ErrDuplicate = errors.New("saved search already exists")

const savedSearchColumns = `name, app, owner, search, disabled, is_scheduled, cron_schedule`

// SavedSearchRepo persists saved searches for the registry stub.
type SavedSearchRepo struct {
	DB *sql.DB
}

// NewSavedSearchRepo returns a new SavedSearchRepo.
func NewSavedSearchRepo(db *sql.DB) *SavedSearchRepo {
	return &SavedSearchRepo{DB: db}
}

func scanSavedSearch(row interface{ Scan(...any) error }) (models.SavedSearch, error) {
	var s models.SavedSearch
	err := row.Scan(&s.Name, &s.App, &s.Owner, &s.Search, &s.Disabled, &s.IsScheduled, &s.CronSchedule)
	return s, err
}

// List returns the saved searches of app in creation order.
func (r *SavedSearchRepo) List(ctx context.Context, app string) ([]models.SavedSearch, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+savedSearchColumns+` FROM saved_searches WHERE app = $1 ORDER BY id`, app)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SavedSearch
	for rows.Next() {
		s, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Get returns one saved search, or nil when app has none named name.
func (r *SavedSearchRepo) Get(ctx context.Context, app, name string) (*models.SavedSearch, error) {
	s, err := scanSavedSearch(r.DB.QueryRowContext(ctx,
		`SELECT `+savedSearchColumns+` FROM saved_searches WHERE app = $1 AND name = $2`, app, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a saved search with splunkd's defaults for a new entry.
func (r *SavedSearchRepo) Create(ctx context.Context, app, owner, name, search string) (*models.SavedSearch, error) {
	s, err := scanSavedSearch(r.DB.QueryRowContext(ctx,
		`INSERT INTO saved_searches (app, owner, name, search) VALUES ($1, $2, $3, $4) RETURNING `+savedSearchColumns,
		app, owner, name, search))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &s, nil
}

// Update sets the non-nil fields of u. It reports whether the entry exists.
func (r *SavedSearchRepo) Update(ctx context.Context, app, name string, u models.SavedSearchUpdate) (bool, error) {
	var search, cron sql.NullString
	var scheduled sql.NullBool
	if u.Search != nil {
		search = sql.NullString{String: *u.Search, Valid: true}
	}
	if u.CronSchedule != nil {
		cron = sql.NullString{String: *u.CronSchedule, Valid: true}
	}
	if u.IsScheduled != nil {
		scheduled = sql.NullBool{Bool: *u.IsScheduled, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE saved_searches SET search = COALESCE($3, search), cron_schedule = COALESCE($4, cron_schedule), is_scheduled = COALESCE($5, is_scheduled), updated_at = NOW() WHERE app = $1 AND name = $2`,
		app, name, search, cron, scheduled,
	)
	return affected(res, err)
}

// SetDisabled sets the disabled flag. It reports whether the entry exists.
func (r *SavedSearchRepo) SetDisabled(ctx context.Context, app, name string, disabled bool) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE saved_searches SET disabled = $3, updated_at = NOW() WHERE app = $1 AND name = $2`,
		app, name, disabled,
	)
	return affected(res, err)
}

// Delete removes a saved search. It reports whether the entry existed.
func (r *SavedSearchRepo) Delete(ctx context.Context, app, name string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM saved_searches WHERE app = $1 AND name = $2`, app, name)
	return affected(res, err)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
