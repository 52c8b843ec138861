package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/repo"
)

var auditColumns = []string{"id", "run_id", "app", "action", "search_name", "details", "created_at"}

func TestAuditHandler_ListAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, run_id, app, action, search_name, details, created_at FROM sync_audit ORDER BY").
		WithArgs(20, 5).
		WillReturnRows(sqlmock.NewRows(auditColumns).
			AddRow(2, "run-1", "security_saved_searches", "delete", "old", "", time.Now()))

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}
	rr := httptest.NewRecorder()
	h.ListAudit(rr, httptest.NewRequest(http.MethodGet, "/searchsync/audit?limit=20&offset=5", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var got []models.AuditEntry
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].SearchName != "old" || got[0].Action != "delete" {
		t.Errorf("unexpected entries: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditHandler_ListAudit_ByRunAndBadLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("WHERE run_id = \\$1").
		WithArgs("run-9").
		WillReturnRows(sqlmock.NewRows(auditColumns))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(auditColumns))

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}

	rr := httptest.NewRecorder()
	h.ListAudit(rr, httptest.NewRequest(http.MethodGet, "/searchsync/audit?run=run-9", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "[]\n" {
		t.Errorf("run filter: got %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ListAudit(rr, httptest.NewRequest(http.MethodGet, "/searchsync/audit?limit=999&offset=-1", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("defaults: got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditHandler_ListAudit_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("FROM sync_audit").WillReturnError(sqlmock.ErrCancelled)

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}
	rr := httptest.NewRecorder()
	h.ListAudit(rr, httptest.NewRequest(http.MethodGet, "/searchsync/audit", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
}
