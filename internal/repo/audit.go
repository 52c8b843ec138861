package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/searchsync/internal/models"
)

// AuditRepo persists the changes applied by reconciliation runs.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record stores one applied change.
func (r *AuditRepo) Record(ctx context.Context, e models.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_audit (run_id, app, action, search_name, details) VALUES ($1, $2, $3, $4, $5)`,
		e.RunID, e.App, e.Action, e.SearchName, e.Details,
	)
	return err
}

// List returns recent audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, app, action, search_name, details, created_at FROM sync_audit ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.App, &e.Action, &e.SearchName, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListRun returns the entries of one run in the order they were applied.
func (r *AuditRepo) ListRun(ctx context.Context, runID string) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, app, action, search_name, details, created_at FROM sync_audit WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.App, &e.Action, &e.SearchName, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
