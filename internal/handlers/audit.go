package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/crucial707/searchsync/internal/models"
)

// AuditStore reads the changes recorded by sync runs.
type AuditStore interface {
	List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error)
	ListRun(ctx context.Context, runID string) ([]models.AuditEntry, error)
}

// AuditHandler serves the sync audit trail.
type AuditHandler struct {
	Repo AuditStore
}

// ListAudit returns recent audit entries. Query: limit (default 50, max 200),
// offset (default 0), run (a run ID; limit and offset are ignored).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	var (
		entries []models.AuditEntry
		err     error
	)
	if runID := r.URL.Query().Get("run"); runID != "" {
		entries, err = h.Repo.ListRun(r.Context(), runID)
	} else {
		limit := 50
		offset := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
				limit = val
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if val, err := strconv.Atoi(o); err == nil && val >= 0 {
				offset = val
			}
		}
		entries, err = h.Repo.List(r.Context(), limit, offset)
	}
	if err != nil {
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
