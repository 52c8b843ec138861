package splunk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/crucial707/searchsync/internal/models"
)

func (c *Client) collectionPath() string {
	return "/servicesNS/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.app) + "/saved/searches"
}

func (c *Client) entityPath(name string) string {
	return c.collectionPath() + "/" + url.PathEscape(name)
}

// List returns the saved searches owned by the client's app. Entries shared
// into the namespace from other apps are skipped so they are never touched.
func (c *Client) List(ctx context.Context) ([]models.SavedSearch, error) {
	query := url.Values{}
	query.Set("count", "0")

	var out feed
	if err := c.do(ctx, http.MethodGet, c.collectionPath(), query, &out, true); err != nil {
		return nil, err
	}

	list := make([]models.SavedSearch, 0, len(out.Entry))
	for _, e := range out.Entry {
		if e.ACL.App != "" && e.ACL.App != c.app {
			continue
		}
		s := e.toModel()
		if s.App == "" {
			s.App = c.app
		}
		list = append(list, s)
	}
	return list, nil
}

// Get returns one saved search by name.
func (c *Client) Get(ctx context.Context, name string) (*models.SavedSearch, error) {
	var out feed
	if err := c.do(ctx, http.MethodGet, c.entityPath(name), nil, &out, true); err != nil {
		return nil, err
	}
	if len(out.Entry) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s := out.Entry[0].toModel()
	return &s, nil
}

// Create registers a new saved search with only its name and query;
// splunkd fills in every other attribute with its defaults.
func (c *Client) Create(ctx context.Context, name, search string) error {
	form := url.Values{}
	form.Set("name", name)
	form.Set("search", search)
	return c.do(ctx, http.MethodPost, c.collectionPath(), form, nil, true)
}

// Enable clears the disabled flag.
func (c *Client) Enable(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, c.entityPath(name)+"/enable", url.Values{}, nil, true)
}

// Disable sets the disabled flag.
func (c *Client) Disable(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, c.entityPath(name)+"/disable", url.Values{}, nil, true)
}

// Update posts only the fields set in u.
func (c *Client) Update(ctx context.Context, name string, u models.SavedSearchUpdate) error {
	if u.Empty() {
		return nil
	}
	form := url.Values{}
	if u.Search != nil {
		form.Set("search", *u.Search)
	}
	if u.CronSchedule != nil {
		form.Set("cron_schedule", *u.CronSchedule)
	}
	if u.IsScheduled != nil {
		form.Set("is_scheduled", formBool(*u.IsScheduled))
	}
	return c.do(ctx, http.MethodPost, c.entityPath(name), form, nil, true)
}

// Delete removes a saved search.
func (c *Client) Delete(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.entityPath(name), nil, nil, true)
}
