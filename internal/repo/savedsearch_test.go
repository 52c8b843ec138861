package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/crucial707/searchsync/internal/models"
)

var savedSearchCols = []string{"name", "app", "owner", "search", "disabled", "is_scheduled", "cron_schedule"}

func TestSavedSearchRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT name, app, owner, search, disabled, is_scheduled, cron_schedule FROM saved_searches WHERE app`).
		WithArgs("security_saved_searches").
		WillReturnRows(sqlmock.NewRows(savedSearchCols).
			AddRow("A", "security_saved_searches", "nobody", "index=x", false, true, "0 * * * *").
			AddRow("B", "security_saved_searches", "nobody", "index=y", true, false, ""))

	r := NewSavedSearchRepo(db)
	list, err := r.List(context.Background(), "security_saved_searches")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list))
	}
	if list[0].Name != "A" || !list[0].IsScheduled || list[0].CronSchedule != "0 * * * *" || list[0].Disabled {
		t.Errorf("unexpected first item: %+v", list[0])
	}
	if list[1].Name != "B" || !list[1].Disabled {
		t.Errorf("unexpected second item: %+v", list[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSavedSearchRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM saved_searches WHERE app = \$1 AND name = \$2`).
		WithArgs("app", "missing").
		WillReturnRows(sqlmock.NewRows(savedSearchCols))

	s, err := NewSavedSearchRepo(db).Get(context.Background(), "app", "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSavedSearchRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO saved_searches`).
		WithArgs("app", "nobody", "A", "index=x").
		WillReturnRows(sqlmock.NewRows(savedSearchCols).
			AddRow("A", "app", "nobody", "index=x", false, false, ""))

	s, err := NewSavedSearchRepo(db).Create(context.Background(), "app", "nobody", "A", "index=x")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Name != "A" || s.Disabled || s.IsScheduled || s.CronSchedule != "" {
		t.Errorf("unexpected entry: %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSavedSearchRepo_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO saved_searches`).
		WithArgs("app", "nobody", "A", "index=x").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = NewSavedSearchRepo(db).Create(context.Background(), "app", "nobody", "A", "index=x")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSavedSearchRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE saved_searches SET search = COALESCE`).
		WithArgs("app", "A", "index=new", nil, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	search := "index=new"
	scheduled := true
	ok, err := NewSavedSearchRepo(db).Update(context.Background(), "app", "A",
		models.SavedSearchUpdate{Search: &search, IsScheduled: &scheduled})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !ok {
		t.Error("expected entry to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSavedSearchRepo_SetDisabled_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE saved_searches SET disabled`).
		WithArgs("app", "missing", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewSavedSearchRepo(db).SetDisabled(context.Background(), "app", "missing", true)
	if err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if ok {
		t.Error("expected missing entry")
	}
}

func TestSavedSearchRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM saved_searches`).
		WithArgs("app", "B").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewSavedSearchRepo(db).Delete(context.Background(), "app", "B")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !ok {
		t.Error("expected entry to be deleted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
