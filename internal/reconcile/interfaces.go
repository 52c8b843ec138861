package reconcile

import (
	"context"

	"github.com/crucial707/searchsync/internal/models"
)

//go:generate mockgen -destination=mock_reconcile.go -package=reconcile github.com/crucial707/searchsync/internal/reconcile Registry,Auditor

// Registry is the saved search store of one app namespace.
type Registry interface {
	List(ctx context.Context) ([]models.SavedSearch, error)
	Create(ctx context.Context, name, search string) error
	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
	Update(ctx context.Context, name string, u models.SavedSearchUpdate) error
	Delete(ctx context.Context, name string) error
}

// Auditor records applied changes.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}
