package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/records"
	"github.com/crucial707/searchsync/internal/repo"
)

// SavedSearchStore is the storage behind the saved search endpoints.
// Get returns nil for a missing entry; the bool results report whether the
// entry existed.
type SavedSearchStore interface {
	List(ctx context.Context, app string) ([]models.SavedSearch, error)
	Get(ctx context.Context, app, name string) (*models.SavedSearch, error)
	Create(ctx context.Context, app, owner, name, search string) (*models.SavedSearch, error)
	Update(ctx context.Context, app, name string, u models.SavedSearchUpdate) (bool, error)
	SetDisabled(ctx context.Context, app, name string, disabled bool) (bool, error)
	Delete(ctx context.Context, app, name string) (bool, error)
}

// SavedSearchHandler serves /servicesNS/{owner}/{app}/saved/searches the way splunkd does.
type SavedSearchHandler struct {
	Store  SavedSearchStore
	Logger *slog.Logger
}

type feedACL struct {
	App   string `json:"app"`
	Owner string `json:"owner"`
}

type feedContent struct {
	Search       string `json:"search"`
	Disabled     bool   `json:"disabled"`
	IsScheduled  bool   `json:"is_scheduled"`
	CronSchedule string `json:"cron_schedule"`
}

type feedEntry struct {
	Name    string      `json:"name"`
	ACL     feedACL     `json:"acl"`
	Content feedContent `json:"content"`
}

type feedPaging struct {
	Total   int `json:"total"`
	PerPage int `json:"perPage"`
	Offset  int `json:"offset"`
}

type feed struct {
	Entry  []feedEntry `json:"entry"`
	Paging feedPaging  `json:"paging"`
}

func toFeed(list []models.SavedSearch) feed {
	out := feed{Entry: make([]feedEntry, 0, len(list))}
	for _, s := range list {
		out.Entry = append(out.Entry, feedEntry{
			Name: s.Name,
			ACL:  feedACL{App: s.App, Owner: s.Owner},
			Content: feedContent{
				Search:       s.Search,
				Disabled:     s.Disabled,
				IsScheduled:  s.IsScheduled,
				CronSchedule: s.CronSchedule,
			},
		})
	}
	out.Paging = feedPaging{Total: len(list), PerPage: len(list)}
	return out
}

func (h *SavedSearchHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// searchName returns the {name} URL parameter. chi matches on the raw path
// when the request carries escaped slashes, so the parameter is unescaped then.
func searchName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// List returns every saved search of the app (GET collection).
func (h *SavedSearchHandler) List(w http.ResponseWriter, r *http.Request) {
	app := chi.URLParam(r, "app")
	list, err := h.Store.List(r.Context(), app)
	if err != nil {
		h.logger().Error("list saved searches", "app", app, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toFeed(list))
}

// Get returns one saved search.
func (h *SavedSearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, name := chi.URLParam(r, "app"), searchName(r)
	s, err := h.Store.Get(r.Context(), app, name)
	if err != nil {
		h.logger().Error("get saved search", "app", app, "name", name, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if s == nil {
		notFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, toFeed([]models.SavedSearch{*s}))
}

// Create registers a saved search. Form: name, search (both required).
// Other attributes start at splunkd's defaults.
func (h *SavedSearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		MessagesError(w, "invalid form body", http.StatusBadRequest)
		return
	}
	app, owner := chi.URLParam(r, "app"), chi.URLParam(r, "owner")
	name, search := r.PostForm.Get("name"), r.PostForm.Get("search")
	if name == "" {
		MessagesError(w, "Cannot create a saved search with an empty name", http.StatusBadRequest)
		return
	}
	if search == "" {
		MessagesError(w, "Cannot create search: the search parameter is required", http.StatusBadRequest)
		return
	}

	s, err := h.Store.Create(r.Context(), app, owner, name, search)
	if errors.Is(err, repo.ErrDuplicate) {
		MessagesError(w, fmt.Sprintf("A saved search with the name %q already exists", name), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger().Error("create saved search", "app", app, "name", name, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toFeed([]models.SavedSearch{*s}))
}

// Update changes the attributes present in the form: search, cron_schedule, is_scheduled.
func (h *SavedSearchHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		MessagesError(w, "invalid form body", http.StatusBadRequest)
		return
	}
	app, name := chi.URLParam(r, "app"), searchName(r)

	var u models.SavedSearchUpdate
	if _, ok := r.PostForm["search"]; ok {
		search := r.PostForm.Get("search")
		if search == "" {
			MessagesError(w, "search must not be empty", http.StatusBadRequest)
			return
		}
		u.Search = &search
	}
	if _, ok := r.PostForm["cron_schedule"]; ok {
		cron := r.PostForm.Get("cron_schedule")
		if cron != "" {
			if err := records.ValidateCron(cron); err != nil {
				MessagesError(w, fmt.Sprintf("Invalid cron_schedule %q", cron), http.StatusBadRequest)
				return
			}
		}
		u.CronSchedule = &cron
	}
	if _, ok := r.PostForm["is_scheduled"]; ok {
		scheduled, err := strconv.ParseBool(r.PostForm.Get("is_scheduled"))
		if err != nil {
			MessagesError(w, "is_scheduled must be a boolean", http.StatusBadRequest)
			return
		}
		u.IsScheduled = &scheduled
	}

	found, err := h.Store.Update(r.Context(), app, name, u)
	if err != nil {
		h.logger().Error("update saved search", "app", app, "name", name, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		notFound(w, name)
		return
	}
	h.Get(w, r)
}

// Enable clears the disabled flag.
func (h *SavedSearchHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, false)
}

// Disable sets the disabled flag.
func (h *SavedSearchHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, true)
}

func (h *SavedSearchHandler) setDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	app, name := chi.URLParam(r, "app"), searchName(r)
	found, err := h.Store.SetDisabled(r.Context(), app, name, disabled)
	if err != nil {
		h.logger().Error("set disabled", "app", app, "name", name, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		notFound(w, name)
		return
	}
	h.Get(w, r)
}

// Delete removes a saved search.
func (h *SavedSearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	app, name := chi.URLParam(r, "app"), searchName(r)
	found, err := h.Store.Delete(r.Context(), app, name)
	if err != nil {
		h.logger().Error("delete saved search", "app", app, "name", name, "error", err)
		MessagesError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		notFound(w, name)
		return
	}
	h.List(w, r)
}

func notFound(w http.ResponseWriter, name string) {
	MessagesError(w, fmt.Sprintf("Could not find object id=%s", name), http.StatusNotFound)
}
